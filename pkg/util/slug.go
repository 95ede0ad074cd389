package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators   = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts s to a URL-safe identifier: accents are folded to ASCII,
// anything that is not a letter, digit, underscore, space or hyphen is
// removed, and runs of spaces/hyphens collapse into a single hyphen.
//
//	Slugify("Summer dresses")        == "summer-dresses"
//	Slugify("Linen floral dress Roses") == "linen-floral-dress-roses"
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}

	ascii := make([]rune, 0, len(folded))
	for _, r := range folded {
		if r <= unicode.MaxASCII {
			ascii = append(ascii, r)
		}
	}

	slug := strings.ToLower(string(ascii))
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-_")
}
