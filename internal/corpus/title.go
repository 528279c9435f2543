package corpus

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle canonicalizes a paper title for equality comparison
// against search results: NFKC normalization, lower-casing, digits and
// punctuation replaced with spaces, space runs collapsed, ends trimmed.
// The function is idempotent.
func NormalizeTitle(title string) string {
	t := norm.NFKC.String(title)
	t = strings.ToLower(t)

	var b strings.Builder
	b.Grow(len(t))
	lastSpace := false
	for _, r := range t {
		keep := unicode.IsLetter(r) || r == '_'
		if keep {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		// Digits, punctuation, and all whitespace (including tabs and
		// newlines) become a single space.
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// titleFilterStrip matches the characters that collide with OpenAlex
// filter syntax and must not appear inside a title.search expression.
func titleFilterStrip(r rune) rune {
	switch r {
	case ',', ':', '!', '"':
		return ' '
	}
	return r
}

// TitleSearchFilter builds an OpenAlex filter expression that searches for
// a title, optionally narrowed by a publication date or year. The title is
// lower-cased and filter-syntax characters are replaced with spaces.
func TitleSearchFilter(title, narrowKey, narrowValue string) string {
	f := "title.search:" + strings.Map(titleFilterStrip, strings.ToLower(title))
	if narrowKey != "" && narrowValue != "" {
		f += ",publication_" + narrowKey + ":" + narrowValue
	}
	return f
}
