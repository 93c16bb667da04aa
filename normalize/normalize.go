// Package normalize converts heterogeneous device and product names into
// canonical comparison keys. Vendor catalogs, wiki titles and the French
// repairability listing all spell the same device differently (storage
// sizes, colors, network suffixes, French generation wording); every
// component that joins data across sources goes through this package.
package normalize

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// iPhoneSECanonical is the single form all "iPhone SE" second
	// generation spellings collapse to. The French catalog writes the
	// line as "SE 2020", "SE 2e génération", "SE seconde génération"
	// or "SE 2nd génération"; without the special case the year and
	// generation suffixes would break matching.
	iPhoneSECanonical = "iPhone SE 2020"
)

var (
	iphoneSERe  = regexp.MustCompile(`(?i)iphone\s*se\s*\(?\s*(2020|(?:2e?|2nd|seconde?)\s*g[ée]n(?:[ée]ration)?)`)
	redmiNoteRe = regexp.MustCompile(`(?i)\bredmi\s*note\s*(\d+)\s*s\b`)
	bracketRe   = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	separatorRe = regexp.MustCompile("[–—/|:_-]")
	networkRe   = regexp.MustCompile(`(?i)\b[45]\s*G\b`)
	storageRe   = regexp.MustCompile(`(?i)\d+\s*(?:GO|GB)`)
	wsRe        = regexp.MustCompile(`\s+`)

	wikiInvalidRe    = regexp.MustCompile(`[^A-Za-z0-9_().\-]+`)
	underscoreRunRe  = regexp.MustCompile(`_+`)
	titleCorrections = strings.NewReplacer(
		"Iphone", "iPhone",
		"Ipad", "iPad",
		"  ", " ",
	)
)

// colorWords is the fixed bilingual color vocabulary removed from names.
// French entries are matched through the stemmer as well, so agreement
// forms ("noire", "grises") are caught without listing each one.
var colorWords = map[string]struct{}{
	"noir": {}, "blanc": {}, "vert": {}, "rouge": {}, "bleu": {},
	"jaune": {}, "rose": {}, "or": {}, "argent": {}, "gris": {},
	"violet": {}, "corail": {}, "lavande": {}, "menthe": {},
	"black": {}, "white": {}, "green": {}, "red": {}, "blue": {},
	"yellow": {}, "pink": {}, "gold": {}, "silver": {}, "gray": {},
	"grey": {}, "purple": {}, "coral": {}, "mint": {}, "graphite": {},
	"anthracite": {},
}

// Name canonicalizes a raw device or product name for cross-catalog
// comparison. The passes run in a fixed order; each is covered by its
// own test case. Supplying the brand strips it when it leads the
// result, so "Samsung Galaxy S21" and "Galaxy S21" compare equal.
//
// Name is pure: same inputs always produce the same output.
func Name(raw, brand string) string {
	if m := iphoneSERe.FindStringSubmatch(raw); m != nil {
		return iPhoneSECanonical
	}
	if m := redmiNoteRe.FindStringSubmatch(raw); m != nil {
		return "Xiaomi Redmi Note " + m[1] + " S"
	}

	s := bracketRe.ReplaceAllString(raw, " ")
	s = strings.ReplaceAll(s, "+", " plus ")
	s = separatorRe.ReplaceAllString(s, " ")
	s = networkRe.ReplaceAllString(s, " ")
	if loc := storageRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
	s = removeColorTokens(s)

	s = cases.Title(language.Und).String(s)
	s = titleCorrections.Replace(s)
	s = stripBrandPrefix(s, brand)
	return s
}

// Key returns the join key used to compare names across catalogs and to
// look up guide groups: the lowercased wiki-title form.
func Key(name string) string {
	return strings.ToLower(WikiTitle(name))
}

// MatchKey returns the case-folded canonical name used by the
// cross-catalog matcher. Both catalogs pass through Name, so equality
// of MatchKey is the matching criterion.
func MatchKey(raw, brand string) string {
	return strings.ToLower(Name(raw, brand))
}

// WikiTitle converts a human-readable device name into the normalized
// iFixit wiki title: whitespace and invalid runs become single
// underscores, and parentheses are percent-encoded for URL safety.
//
//	"Samsung Galaxy S22 Ultra"      -> "Samsung_Galaxy_S22_Ultra"
//	"Motorola Edge 5G UW (2021)"    -> "Motorola_Edge_5G_UW_%282021%29"
func WikiTitle(name string) string {
	s := wsRe.ReplaceAllString(strings.TrimSpace(name), "_")
	s = wikiInvalidRe.ReplaceAllString(s, "_")
	s = underscoreRunRe.ReplaceAllString(s, "_")
	s = strings.ReplaceAll(s, "(", "%28")
	s = strings.ReplaceAll(s, ")", "%29")
	return s
}

func removeColorTokens(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if isColorToken(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func isColorToken(token string) bool {
	lower := strings.ToLower(token)
	if _, ok := colorWords[lower]; ok {
		return true
	}
	// French color adjectives agree in gender and number; the stemmer
	// folds "noire", "grise" or "bleus" back onto the listed stem.
	if stemmed, err := snowball.Stem(lower, "french", false); err == nil {
		if _, ok := colorWords[stemmed]; ok {
			return true
		}
	}
	for _, suffix := range []string{"es", "e", "s"} {
		if trimmed, ok := strings.CutSuffix(lower, suffix); ok {
			if _, found := colorWords[trimmed]; found {
				return true
			}
		}
	}
	return false
}

func stripBrandPrefix(s, brand string) string {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return s
	}
	nameFields := strings.Fields(s)
	brandFields := strings.Fields(brand)
	if len(nameFields) <= len(brandFields) {
		return s
	}
	for i, bf := range brandFields {
		if !strings.EqualFold(nameFields[i], bf) {
			return s
		}
	}
	return strings.Join(nameFields[len(brandFields):], " ")
}
