package cleaners

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

var (
	// hyphen at the end of a line: "word- \nbreak"
	lineBreakHyphen = regexp.MustCompile(`-[ \t]*\n[ \t]*`)
	// hyphen followed by horizontal space inside a line: "wo- rd"
	midWordHyphen = regexp.MustCompile(`-[ \t]+`)
)

// SimpleCleaner collapses whitespace runs and trims.
// Blank lines survive as paragraph breaks so that the recursive splitter can
// still see them; every other whitespace run becomes a single space.
type SimpleCleaner struct{}

func (c *SimpleCleaner) Strategy() domain.CleanerStrategy { return domain.CleanerSimple }

func (c *SimpleCleaner) Clean(text string) string {
	return collapseWhitespace(text)
}

// AdvancedCleaner additionally joins words hyphenated across a line break and
// strips form feeds and non-ASCII bytes.
type AdvancedCleaner struct{}

func (c *AdvancedCleaner) Strategy() domain.CleanerStrategy { return domain.CleanerAdvanced }

func (c *AdvancedCleaner) Clean(text string) string {
	text = strings.ReplaceAll(text, "\f", "")
	text = stripRunes(text, func(r rune) bool { return r > unicode.MaxASCII })
	text = joinHyphenated(normaliseNewlines(text), lineBreakHyphen)
	return collapseWhitespace(text)
}

// OCRCleaner additionally joins single-hyphen mid-word breaks, keeps only
// printable ASCII and separates sentences fused across punctuation.
type OCRCleaner struct{}

func (c *OCRCleaner) Strategy() domain.CleanerStrategy { return domain.CleanerOCROptimized }

func (c *OCRCleaner) Clean(text string) string {
	text = normaliseNewlines(text)
	text = stripRunes(text, func(r rune) bool {
		return r != '\n' && r != '\t' && (r < 0x20 || r > 0x7e)
	})
	text = joinHyphenated(text, lineBreakHyphen)
	text = joinHyphenated(text, midWordHyphen)
	text = spaceAfterSentence(text)
	return collapseWhitespace(text)
}

func normaliseNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// collapseWhitespace joins the words of each paragraph with single spaces and
// the paragraphs with one blank line.
func collapseWhitespace(text string) string {
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(normaliseNewlines(text), "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			flush()
			continue
		}
		current = append(current, words...)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

func stripRunes(text string, drop func(r rune) bool) string {
	return strings.Map(func(r rune) rune {
		if drop(r) {
			return -1
		}
		return r
	}, text)
}

// joinHyphenated removes every match of sep that sits between two letters.
func joinHyphenated(text string, sep *regexp.Regexp) string {
	matches := sep.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && end < len(text) && isLetter(text[start-1]) && isLetter(text[end]) {
			b.WriteString(text[last:start])
			last = end
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

// spaceAfterSentence inserts a space after . ! ? when a letter follows directly.
func spaceAfterSentence(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/32)
	for i := 0; i < len(text); i++ {
		b.WriteByte(text[i])
		if isSentenceEnd(text[i]) && i+1 < len(text) && isLetter(text[i+1]) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func isSentenceEnd(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
