// Package frenchindex scrapes the French repairability-score catalog
// (indicereparabilite.fr) and matches its entries against iFixit
// devices by normalized name.
package frenchindex

import (
	"strings"

	"repairindex/normalize"
)

// ScoreRecord is one product scraped from the French catalog. The
// normalized name is computed once at scrape time and reused by every
// lookup.
type ScoreRecord struct {
	Name               string  `json:"name"`
	NormalizedName     string  `json:"normalized_name"`
	Brand              string  `json:"brand"`
	Model              string  `json:"model"`
	LastUpdated        string  `json:"last_updated"`
	RepairabilityScore float64 `json:"repairability_score"`
}

// Device identifies an iFixit device to match.
type Device struct {
	Name  string
	Title string
	Brand string
	Model string
}

// Matcher resolves a French score for a device. The bool result is
// false when no confident match exists — the common case, not an
// error.
type Matcher interface {
	MatchScore(device Device) (float64, bool)
}

// Index groups candidate scores by match key. A key can carry several
// distinct scores when the source catalog lists near-duplicate
// products; candidate order is first-encountered.
type Index map[string][]float64

// BuildIndex groups records by their precomputed normalized name,
// case-folded.
func BuildIndex(records []ScoreRecord) Index {
	index := make(Index, len(records))
	for _, r := range records {
		key := strings.ToLower(r.NormalizedName)
		if key == "" {
			continue
		}
		index[key] = append(index[key], r.RepairabilityScore)
	}
	return index
}

// ExactMatcher joins the two catalogs on equal normalized keys and
// resolves duplicate candidates by majority vote. Scores are small
// categorical ratings, so when scraped duplicates disagree the modal
// value beats an arbitrary pick or an average.
type ExactMatcher struct {
	index Index
}

// NewExactMatcher builds the default matcher over the French records.
func NewExactMatcher(records []ScoreRecord) *ExactMatcher {
	return &ExactMatcher{index: BuildIndex(records)}
}

// MatchScore looks up the device's normalized name and returns the
// modal candidate score.
func (m *ExactMatcher) MatchScore(device Device) (float64, bool) {
	key := normalize.MatchKey(device.Name, device.Brand)
	candidates := m.index[key]
	if len(candidates) == 0 {
		return 0, false
	}
	return modalScore(candidates), true
}

// modalScore returns the most frequent value; ties go to the candidate
// encountered first.
func modalScore(candidates []float64) float64 {
	counts := make(map[float64]int, len(candidates))
	best := candidates[0]
	bestCount := 0
	for _, score := range candidates {
		counts[score]++
		if counts[score] > bestCount {
			best = score
			bestCount = counts[score]
		}
	}
	return best
}
