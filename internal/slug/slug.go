// Package slug turns human titles into unique, URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]+`)
	separators = regexp.MustCompile(`[\s-]+`)
)

// Normalize lower-cases s, folds accented letters to their base letter, strips
// everything outside [a-z0-9 whitespace -], collapses whitespace and hyphen
// runs into a single hyphen and trims hyphens from both ends.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	result := strings.ToLower(folded)
	result = disallowed.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
