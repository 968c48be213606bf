package splitters

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

const (
	paragraphSep = "\n\n"
	sentenceSep  = " "
)

// Recursive packs whole paragraphs into chunks of at most chunkSize
// characters. A paragraph that is too long on its own is split into
// sentences, and a sentence that is still too long is packed word by word.
// Only a single word longer than chunkSize can produce an oversized chunk.
//
// Overlap applies to the word level only: consecutive word-packed pieces of
// the same sentence repeat trailing words totalling at most overlap characters.
type Recursive struct{}

func (r *Recursive) Strategy() domain.SplitStrategy { return domain.SplitRecursive }

func (r *Recursive) Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}

	var chunks []string
	paragraphs := splitParagraphs(text)

	buf := newPacker(chunkSize, paragraphSep)
	for _, p := range paragraphs {
		if length(p) <= chunkSize {
			if !buf.add(p) {
				chunks = buf.flush(chunks)
				buf.add(p)
			}
			continue
		}

		chunks = buf.flush(chunks)
		chunks = append(chunks, splitSentences(p, chunkSize, overlap)...)
	}
	return buf.flush(chunks)
}

func splitSentences(paragraph string, chunkSize, overlap int) []string {
	var chunks []string

	buf := newPacker(chunkSize, sentenceSep)
	for _, s := range sentences(paragraph) {
		if length(s) <= chunkSize {
			if !buf.add(s) {
				chunks = buf.flush(chunks)
				buf.add(s)
			}
			continue
		}

		chunks = buf.flush(chunks)
		chunks = append(chunks, packWords(strings.Fields(s), chunkSize, overlap)...)
	}
	return buf.flush(chunks)
}

// packWords fills pieces of at most chunkSize characters with whole words.
func packWords(words []string, chunkSize, overlap int) []string {
	var chunks []string

	start := 0
	for start < len(words) {
		end, size := start, 0
		for end < len(words) {
			add := length(words[end])
			if end > start {
				add++
			}
			if end > start && size+add > chunkSize {
				break
			}
			size += add
			end++
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}

		next, shared := end, 0
		for next-1 > start {
			add := length(words[next-1])
			if shared > 0 {
				add++
			}
			if shared+add > overlap {
				break
			}
			shared += add
			next--
		}
		start = next
	}
	return chunks
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentences cuts after a run of . ! ? that is followed by whitespace or the end.
func sentences(paragraph string) []string {
	var out []string
	runes := []rune(paragraph)

	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		for i+1 < len(runes) && isTerminator(runes[i+1]) {
			i++
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

// packer greedily joins pieces while the joined length stays within limit.
type packer struct {
	limit int
	sep   string
	parts []string
	size  int
}

func newPacker(limit int, sep string) *packer {
	return &packer{limit: limit, sep: sep}
}

func (p *packer) add(piece string) bool {
	add := length(piece)
	if len(p.parts) > 0 {
		add += length(p.sep)
	}
	if len(p.parts) > 0 && p.size+add > p.limit {
		return false
	}
	p.parts = append(p.parts, piece)
	p.size += add
	return true
}

func (p *packer) flush(chunks []string) []string {
	if len(p.parts) == 0 {
		return chunks
	}
	chunks = append(chunks, strings.Join(p.parts, p.sep))
	p.parts = p.parts[:0]
	p.size = 0
	return chunks
}
