package frenchindex

import (
	"testing"
)

func record(name, brand string, score float64) ScoreRecord {
	return ScoreRecord{
		Name:               name,
		NormalizedName:     normalizeProductName(name, brand),
		Brand:              brand,
		RepairabilityScore: score,
	}
}

func TestExactMatcherJoinsOnNormalizedKey(t *testing.T) {
	records := []ScoreRecord{
		record("Smartphone APPLE iPhone 13 128Go Noir", "APPLE", 7.9),
		record("Smartphone SAMSUNG GALAXY S21+ 5G", "SAMSUNG", 8.2),
	}
	m := NewExactMatcher(records)

	tests := []struct {
		name   string
		device Device
		want   float64
		wantOK bool
	}{
		{
			name:   "same model different spelling",
			device: Device{Name: "iPhone 13", Brand: "Apple"},
			want:   7.9,
			wantOK: true,
		},
		{
			name:   "plus and network suffix",
			device: Device{Name: "Galaxy S21+ 5G", Brand: "Samsung"},
			want:   8.2,
			wantOK: true,
		},
		{
			name:   "unknown device",
			device: Device{Name: "Galaxy S22", Brand: "Samsung"},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.MatchScore(tt.device)
			if ok != tt.wantOK {
				t.Fatalf("MatchScore(%q) ok = %v, want %v", tt.device.Name, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("MatchScore(%q) = %v, want %v", tt.device.Name, got, tt.want)
			}
		})
	}
}

func TestExactMatcherPicksModalScore(t *testing.T) {
	records := []ScoreRecord{
		record("Smartphone APPLE iPhone 13", "APPLE", 6.2),
		record("Smartphone APPLE iPhone 13 256Go", "APPLE", 6.2),
		record("Smartphone APPLE iPhone 13 512Go", "APPLE", 7.0),
	}
	m := NewExactMatcher(records)

	got, ok := m.MatchScore(Device{Name: "iPhone 13", Brand: "Apple"})
	if !ok {
		t.Fatal("expected a match")
	}
	if got != 6.2 {
		t.Errorf("modal score = %v, want 6.2", got)
	}
}

func TestModalScoreTieBreaksOnFirstEncountered(t *testing.T) {
	if got := modalScore([]float64{7.0, 6.2}); got != 7.0 {
		t.Errorf("modalScore tie = %v, want first candidate 7.0", got)
	}
	if got := modalScore([]float64{6.2, 7.0, 7.0}); got != 7.0 {
		t.Errorf("modalScore = %v, want majority 7.0", got)
	}
}

func TestBuildIndexSkipsEmptyKeys(t *testing.T) {
	index := BuildIndex([]ScoreRecord{
		{Name: "Smartphone", NormalizedName: "", RepairabilityScore: 5.0},
		record("Smartphone APPLE iPhone 13", "APPLE", 7.9),
	})
	if len(index) != 1 {
		t.Fatalf("index size = %d, want 1", len(index))
	}
	if _, ok := index[""]; ok {
		t.Error("index contains empty key")
	}
}
