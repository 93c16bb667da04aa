package hierarchy

import (
	"sort"
	"testing"
)

func mustParse(t *testing.T, raw string) *Node {
	t.Helper()
	n, err := ParseTree([]byte(raw))
	if err != nil {
		t.Fatalf("ParseTree failed: %v", err)
	}
	return n
}

func TestCollect_SubtreeExclusion(t *testing.T) {
	tree := mustParse(t, `{
		"iPhone": {
			"iPhone 13": null,
			"iPhone Accessories": {"Case": null}
		}
	}`)

	got := Collect(tree, []string{"iPhone"}, map[string][]string{
		"iPhone": {"iPhone Accessories"},
	})

	want := []string{"iPhone 13"}
	assertDevices(t, got["iPhone"], want)
}

func TestCollect_LeafForms(t *testing.T) {
	tree := mustParse(t, `{
		"Android Phone": {
			"Asus ROG Phone 6": null,
			"Some Series": ["Model A", "Model B"],
			"Lone Series": [null],
			"Nested": {"Deep Model": null}
		}
	}`)

	got := Collect(tree, []string{"Android Phone"}, nil)
	want := []string{"Asus ROG Phone 6", "Deep Model", "Lone Series", "Model A", "Model B"}
	assertDevices(t, got["Android Phone"], want)
}

func TestCollect_MetadataKeysSkipped(t *testing.T) {
	tree := mustParse(t, `{
		"iPhone": {
			"attrs": {"Fake Device": null},
			"repairability_score": null,
			"parts": ["Not A Device"],
			"iPhone 13": null
		}
	}`)

	got := Collect(tree, []string{"iPhone"}, nil)
	for _, d := range got["iPhone"] {
		if isMetadataKey(d) {
			t.Errorf("metadata key %q leaked into device list", d)
		}
	}
	assertDevices(t, got["iPhone"], []string{"iPhone 13"})
}

func TestCollect_TargetRecursAtMultipleDepths(t *testing.T) {
	tree := mustParse(t, `{
		"Phones": {
			"iPhone": {"iPhone 12": null},
			"Legacy": {
				"iPhone": {"iPhone 4": null}
			}
		}
	}`)

	got := Collect(tree, []string{"iPhone"}, nil)
	assertDevices(t, got["iPhone"], []string{"iPhone 12", "iPhone 4"})
}

func TestCollect_NullTargetIsOwnLeaf(t *testing.T) {
	tree := mustParse(t, `{"Phones": {"Fairphone 5": null}}`)
	got := Collect(tree, []string{"Fairphone 5"}, nil)
	assertDevices(t, got["Fairphone 5"], []string{"Fairphone 5"})
}

func TestCollect_MalformedRoots(t *testing.T) {
	roots := map[string]string{
		"null root":   `null`,
		"string root": `"oops"`,
		"array root":  `["a", "b"]`,
		"number root": `42`,
	}
	for name, raw := range roots {
		t.Run(name, func(t *testing.T) {
			got := Collect(mustParse(t, raw), []string{"iPhone"}, nil)
			if len(got["iPhone"]) != 0 {
				t.Errorf("expected empty result, got %v", got["iPhone"])
			}
		})
	}

	got := Collect(nil, []string{"iPhone"}, nil)
	if len(got["iPhone"]) != 0 {
		t.Errorf("nil tree should yield empty lists, got %v", got["iPhone"])
	}
}

func TestCollect_SortedAndDeduplicated(t *testing.T) {
	tree := mustParse(t, `{
		"Android Phone": {
			"Series A": ["Zeta", "Alpha", "Zeta"],
			"Series B": ["Alpha"]
		}
	}`)

	got := Collect(tree, []string{"Android Phone"}, nil)
	devices := got["Android Phone"]

	if !sort.StringsAreSorted(devices) {
		t.Errorf("devices not sorted: %v", devices)
	}
	seen := map[string]int{}
	for _, d := range devices {
		seen[d]++
	}
	for d, count := range seen {
		if count > 1 {
			t.Errorf("device %q appears %d times", d, count)
		}
	}
	assertDevices(t, devices, []string{"Alpha", "Zeta"})
}

func assertDevices(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
