package frenchindex

import "testing"

func TestLooseKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Smartphone APPLE iPhone 13 128Go Noir", "apple iphone 13"},
		{"SAMSUNG GALAXY S21+ 5G", "samsung galaxy s21 plus"},
		{"Xiaomi Redmi Note 10 Bleu Lagon", "xiaomi redmi note 10 lagon"},
		{"Fairphone 4 256GB Gris", "fairphone 4"},
		{"OPPO Find X3 Lite", "oppo find x3 lite"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := looseKey(tt.in); got != tt.want {
			t.Errorf("looseKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLooseNameStripsBrandPrefix(t *testing.T) {
	if got := looseName("Smartphone APPLE iPhone 13", "APPLE"); got != "iphone 13" {
		t.Errorf("looseName = %q, want %q", got, "iphone 13")
	}
	if got := looseName("iPhone 13", "Apple"); got != "iphone 13" {
		t.Errorf("looseName without prefix = %q, want %q", got, "iphone 13")
	}
}

func TestExtractGeneration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"iPhone 13 Pro", "13"},
		{"iPhone 13 Pro Max A2643", "13"},
		{"Galaxy S21", ""},
		{"iPhone SE 2020", ""},
	}
	for _, tt := range tests {
		if got := extractGeneration(tt.in); got != tt.want {
			t.Errorf("extractGeneration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractModelToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"iPhone 13 Pro Max A2643", "a2643"},
		{"Galaxy S21 SM-G991B", "g991b"},
		{"iPhone 13", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractModelToken(tt.in); got != tt.want {
			t.Errorf("extractModelToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDamerauLevenshtein(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "acb", 1}, // transposition
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := damerauLevenshtein(tt.s1, tt.s2); got != tt.want {
			t.Errorf("damerauLevenshtein(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}

func TestSimilarityRatio(t *testing.T) {
	if got := similarityRatio("iphone 13", "iphone 13"); got != 1.0 {
		t.Errorf("identical ratio = %v, want 1.0", got)
	}
	if got := similarityRatio("iphone 13", "iphone 13 pro"); got > strictRatioThreshold {
		t.Errorf("different models ratio = %v, should not clear %v", got, strictRatioThreshold)
	}
	if got := similarityRatio("", ""); got != 1.0 {
		t.Errorf("empty ratio = %v, want 1.0", got)
	}
}
