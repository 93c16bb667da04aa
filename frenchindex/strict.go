package frenchindex

import (
	"io"
	"log/slog"
	"strings"
)

// strictRatioThreshold is the near-exact similarity a name pair must
// clear in the fallback step. Anything looser produces cross-model
// mismatches within a product family (an "iPhone 13" matching
// "iPhone 13 Pro").
const strictRatioThreshold = 0.98

// StrictMatcher resolves scores in three passes of decreasing
// confidence: exact model code, model code embedded in the product
// name, then brand- and generation-gated name similarity. It trades
// recall for precision and is meant for catalogs where the exact join
// produces false positives.
type StrictMatcher struct {
	records []ScoreRecord
	logger  *slog.Logger
}

// NewStrictMatcher builds a matcher over the French records. A nil
// logger disables match tracing.
func NewStrictMatcher(records []ScoreRecord, logger *slog.Logger) *StrictMatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StrictMatcher{records: records, logger: logger}
}

// MatchScore attempts the three passes in order and returns the first
// confident score.
func (m *StrictMatcher) MatchScore(device Device) (float64, bool) {
	name := looseName(device.Name, device.Brand)
	title := looseName(device.Title, device.Brand)
	brand := looseKey(device.Brand)
	model := looseKey(device.Model)
	fullName := strings.TrimSpace(device.Name + " " + device.Title)
	generation := extractGeneration(fullName)
	nameModel := extractModelToken(fullName)

	if model != "" {
		for _, r := range m.records {
			if looseKey(r.Model) == model && looseKey(r.Brand) == brand {
				m.logger.Debug("matched by model code",
					"device", device.Name, "model", model, "score", r.RepairabilityScore)
				return r.RepairabilityScore, true
			}
		}
	}

	if nameModel != "" {
		for _, r := range m.records {
			if extractModelToken(r.Name) == nameModel && looseKey(r.Brand) == brand {
				m.logger.Debug("matched by model code in name",
					"device", device.Name, "model", nameModel, "score", r.RepairabilityScore)
				return r.RepairabilityScore, true
			}
		}
	}

	// Fallback: same brand, same generation number, near-identical name.
	var bestScore float64
	bestRatio := 0.0
	found := false
	for _, r := range m.records {
		if looseKey(r.Brand) != brand {
			continue
		}
		if extractGeneration(r.Name) != generation {
			continue
		}

		frenchName := looseName(r.Name, r.Brand)
		ratio := similarityRatio(name, frenchName)
		if tr := similarityRatio(title, frenchName); tr > ratio {
			ratio = tr
		}

		if ratio > strictRatioThreshold && ratio > bestRatio {
			bestScore = r.RepairabilityScore
			bestRatio = ratio
			found = true
		}
	}
	if found {
		m.logger.Debug("matched by name similarity",
			"device", device.Name, "ratio", bestRatio, "score", bestScore)
		return bestScore, true
	}

	m.logger.Debug("no confident match", "device", device.Name)
	return 0, false
}
