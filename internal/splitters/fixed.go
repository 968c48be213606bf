package splitters

import (
	"strings"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// Fixed splits on whitespace into windows of chunkSize words. The window
// advances by chunkSize-overlap words, so consecutive chunks share exactly
// overlap words. The last window may be shorter. Once a window reaches the
// last word no further window is emitted, since it would hold only words
// the previous chunk already carries.
type Fixed struct{}

func (f *Fixed) Strategy() domain.SplitStrategy { return domain.SplitFixed }

func (f *Fixed) Split(text string, chunkSize, overlap int) []string {
	words := strings.Fields(text)
	step := chunkSize - overlap
	if len(words) == 0 || chunkSize <= 0 || overlap < 0 || step <= 0 {
		return nil
	}

	var chunks []string
	for start := 0; ; start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			return chunks
		}
	}
}
