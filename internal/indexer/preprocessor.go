package indexer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	hyphenBreakRe   = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{L})`)
	markdownImageRe = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	markdownLinkRe  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	inlineCodeRe    = regexp.MustCompile("`([^`]*)`")
	emphasisRe      = regexp.MustCompile(`\*{1,3}([^*\n]+)\*{1,3}`)
)

// Preprocess normalizes text before chunking: repairs hyphenated line breaks
// ("exam-\nple" becomes "example"), strips markdown links and inline markup
// down to their visible text, and collapses runs of whitespace to single
// spaces. Chunk spans refer to this cleaned text.
func Preprocess(text string) string {
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	text = markdownImageRe.ReplaceAllString(text, "$1")
	text = markdownLinkRe.ReplaceAllString(text, "$1")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = emphasisRe.ReplaceAllString(text, "$1")

	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
