// Package report assembles the final device report from the score,
// guide and French-catalog results and writes it out atomically.
package report

import (
	"sort"

	"repairindex/frenchindex"
	"repairindex/guides"
	"repairindex/normalize"
)

// DeviceResult is the per-device outcome of the score fetch. A device
// that could not be fetched still produces a result, with Score, Brand
// and Link unset.
type DeviceResult struct {
	Name  string
	Title string
	Score *float64
	Brand *string
	Link  *string
	Err   error
}

// Entry is one device in the output report. Field order is the output
// order.
type Entry struct {
	Name               string         `json:"name"`
	Title              string         `json:"title"`
	RepairabilityScore *float64       `json:"repairability_score"`
	ScorecardVersion   string         `json:"scorecard_version,omitempty"`
	Brand              *string        `json:"brand"`
	Link               *string        `json:"link"`
	TeardownURLs       []guides.Guide `json:"teardown_urls"`
	FrenchScore        *float64       `json:"french_score,omitempty"`
}

// Assembler merges device results with ranked guides, French scores
// and scorecard versions. Any of the enrichment inputs may be nil.
type Assembler struct {
	guides     map[string][]guides.Guide
	matcher    frenchindex.Matcher
	scorecards map[string]string // device link -> scorecard version
}

// NewAssembler builds an assembler over the enrichment inputs.
func NewAssembler(guidesByKey map[string][]guides.Guide, matcher frenchindex.Matcher, scorecards map[string]string) *Assembler {
	return &Assembler{guides: guidesByKey, matcher: matcher, scorecards: scorecards}
}

// Assemble turns results into sorted report entries. Duplicate
// (name, title) pairs keep their first occurrence. Failed devices are
// kept with a null score so the report lists every device that was
// attempted.
func (a *Assembler) Assemble(results []DeviceResult) []Entry {
	type identity struct{ name, title string }
	seen := make(map[identity]struct{}, len(results))

	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		id := identity{r.Name, r.Title}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		entries = append(entries, a.entry(r))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		bi, bj := derefOrEmpty(entries[i].Brand), derefOrEmpty(entries[j].Brand)
		if bi != bj {
			return bi < bj
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Title < entries[j].Title
	})
	return entries
}

func (a *Assembler) entry(r DeviceResult) Entry {
	e := Entry{
		Name:               r.Name,
		Title:              r.Title,
		RepairabilityScore: r.Score,
		Brand:              r.Brand,
		Link:               r.Link,
		TeardownURLs:       []guides.Guide{},
	}

	if a.guides != nil {
		if ranked, ok := a.guides[normalize.Key(r.Name)]; ok {
			e.TeardownURLs = ranked
		}
	}

	if a.scorecards != nil && r.Link != nil {
		e.ScorecardVersion = a.scorecards[*r.Link]
	}

	if a.matcher != nil {
		device := frenchindex.Device{Name: r.Name, Title: r.Title, Brand: derefOrEmpty(r.Brand)}
		if score, ok := a.matcher.MatchScore(device); ok {
			e.FrenchScore = &score
		}
	}

	return e
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
