package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakePages struct {
	current string
	older   string
	err     error
}

func (f *fakePages) GetRepairabilityPageHTML(_ context.Context, old bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if old {
		return f.older, nil
	}
	return f.current, nil
}

func deviceBlock(name, deviceURL, scorecardText string) string {
	return fmt.Sprintf(`<div class="wp-block-column is-layout-flow wp-block-column-is-layout-flow">
  <h1 class="wp-block-heading">%s</h1>
  <figure class="wp-block-image"><a href="%s"><img src="x.jpg"></a></figure>
  <p class="has-text-align-center has-small-font-size"><a href="https://www.ifixit.com/scorecard">%s</a></p>
</div>`, name, deviceURL, scorecardText)
}

func TestScorecardVersionsParsesBothPages(t *testing.T) {
	src := &fakePages{
		current: "<html><body>" +
			deviceBlock("iPhone 13", "https://www.ifixit.com/Device/iPhone_13", "Scorecard v2.1") +
			"</body></html>",
		older: "<html><body>" +
			deviceBlock("iPhone 7", "https://www.ifixit.com/Device/iPhone_7", "Scorecard v1.0") +
			"</body></html>",
	}

	versions, err := ScorecardVersions(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("ScorecardVersions() error: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}
	if versions["https://www.ifixit.com/Device/iPhone_13"] != "2.1" {
		t.Errorf("iPhone 13 version = %q, want 2.1", versions["https://www.ifixit.com/Device/iPhone_13"])
	}
	if versions["https://www.ifixit.com/Device/iPhone_7"] != "1.0" {
		t.Errorf("iPhone 7 version = %q, want 1.0", versions["https://www.ifixit.com/Device/iPhone_7"])
	}
}

func TestScorecardVersionsSkipsIncompleteBlocks(t *testing.T) {
	src := &fakePages{
		current: "<html><body>" +
			deviceBlock("No Version", "https://www.ifixit.com/Device/No_Version", "Scorecard") +
			`<div class="wp-block-column is-layout-flow wp-block-column-is-layout-flow">
			   <h1 class="wp-block-heading">No Link</h1>
			 </div>` +
			"</body></html>",
		older: "<html><body></body></html>",
	}

	versions, err := ScorecardVersions(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("ScorecardVersions() error: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("got %d versions, want 0", len(versions))
	}
}

func TestScorecardVersionsPropagatesFetchError(t *testing.T) {
	src := &fakePages{err: errors.New("upstream down")}
	if _, err := ScorecardVersions(context.Background(), src, nil); err == nil {
		t.Fatal("expected error")
	}
}
