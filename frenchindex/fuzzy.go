package frenchindex

import (
	"regexp"
	"strings"
)

var (
	looseMarketingRe = regexp.MustCompile(`smartphone\s*`)
	looseNetworkRe   = regexp.MustCompile(`\s*5g|\s*4g|\s*lte`)
	looseStorageRe   = regexp.MustCompile(`\s*(?:\d+\s*(?:go|gb|tb)\s*)+`)
	looseColorRe     = regexp.MustCompile(`\s*(?:noir|blanc|vert|rouge|bleu|jaune|rose|or|argent|gr[ie]s)[a-zéèê]*`)
	looseSepRe       = regexp.MustCompile(`[_-]`)
	nonAlnumRe       = regexp.MustCompile(`[^a-z0-9 ]`)
	spacesRe         = regexp.MustCompile(`\s+`)
	generationRe     = regexp.MustCompile(`\b(1[0-9])\b`)
	modelTokenRe     = regexp.MustCompile(`\b[a-z0-9]{4,7}\b$`)
)

// looseKey reduces a product name to a bag-of-tokens key for fuzzy
// comparison: lowercase, marketing noise and network/storage/color
// suffixes removed, punctuation flattened to spaces.
func looseKey(text string) string {
	s := strings.ToLower(text)
	s = looseMarketingRe.ReplaceAllString(s, "")
	s = looseNetworkRe.ReplaceAllString(s, "")
	s = looseStorageRe.ReplaceAllString(s, "")
	s = looseColorRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "+", " plus ")
	s = looseSepRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

// looseName is looseKey with the brand prefix removed, so "apple
// iphone 13" and "iphone 13" compare equal under the same brand.
func looseName(text, brand string) string {
	name := looseKey(text)
	b := looseKey(brand)
	if b != "" && strings.HasPrefix(name, b) {
		name = strings.TrimSpace(name[len(b):])
	}
	return name
}

// extractGeneration pulls a two-digit generation number out of a name
// ("13" from "iPhone 13"), or "".
func extractGeneration(text string) string {
	m := generationRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return ""
	}
	return m[1]
}

// extractModelToken finds an alphanumeric model code trailing a name
// ("a2485" from "iPhone 13 Pro Max A2485"), or "".
func extractModelToken(text string) string {
	return modelTokenRe.FindString(strings.ToLower(text))
}

// damerauLevenshtein computes edit distance with adjacent
// transpositions counted as a single operation.
func damerauLevenshtein(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}
	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}

			matrix[i][j] = min3(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)

			if i > 1 && j > 1 && r1[i-1] == r2[j-2] && r1[i-2] == r2[j-1] {
				if matrix[i-2][j-2]+1 < matrix[i][j] {
					matrix[i][j] = matrix[i-2][j-2] + 1 // transposition
				}
			}
		}
	}

	return matrix[len1][len2]
}

// similarityRatio maps edit distance into [0, 1], 1 meaning equal.
func similarityRatio(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	distance := damerauLevenshtein(s1, s2)
	maxLen := len([]rune(s1))
	if l := len([]rune(s2)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
