package cleaners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

var corpus = []string{
	"",
	"   ",
	"plain text",
	"  leading and trailing  ",
	"tabs\tand\t\tspaces   mixed\r\nwith windows\rnewlines",
	"First paragraph line one\nline two.\n\n\n  Second paragraph.\n \n\nThird.",
	"hyphen- \nated word and inter-\nnational",
	"a-\nb-\nc chained breaks",
	"form\ffeed and café crème",
	"OCR wo- rd breaks and fused.Sentences!Here?Yes",
	"numbers 3.14 and e.g.this and wait...what",
	"non breaking spaces",
	"ctrl\x01chars\x7f here",
	"ends with hyphen-\n\nnext paragraph",
	"wo-\v\nrd",
}

func allStrategies() []domain.CleanerStrategy {
	return []domain.CleanerStrategy{domain.CleanerSimple, domain.CleanerAdvanced, domain.CleanerOCROptimized}
}

func TestClean_Idempotent(t *testing.T) {
	r := DefaultRegistry()

	for _, strategy := range allStrategies() {
		for _, input := range corpus {
			once, err := r.Clean(input, strategy)
			require.NoError(t, err)
			twice, err := r.Clean(once, strategy)
			require.NoError(t, err)
			assert.Equal(t, once, twice, "strategy=%s input=%q", strategy, input)
		}
	}
}

func TestClean_EmptyInput(t *testing.T) {
	r := DefaultRegistry()
	for _, strategy := range allStrategies() {
		out, err := r.Clean("", strategy)
		require.NoError(t, err)
		assert.Empty(t, out, "strategy=%s", strategy)
	}
}

func TestClean_UnknownStrategy(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Clean("text", "aggressive")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSimpleCleaner(t *testing.T) {
	c := &SimpleCleaner{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses runs", "a   b\t\tc", "a b c"},
		{"trims", "  a b  ", "a b"},
		{"single newline becomes space", "line one\nline two", "line one line two"},
		{"blank lines keep paragraphs", "para one\n\n\n  para two", "para one\n\npara two"},
		{"whitespace only line is blank", "a\n \t \nb", "a\n\nb"},
		{"keeps non-ascii", "café", "café"},
		{"keeps hyphens", "hyphen-\nated", "hyphen- ated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Clean(tt.in))
		})
	}
}

func TestAdvancedCleaner(t *testing.T) {
	c := &AdvancedCleaner{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"repairs line break hyphen", "word- \nbreak", "wordbreak"},
		{"repairs with leading space on next line", "inter-\n  national", "international"},
		{"repairs chained breaks", "a-\nb-\nc", "abc"},
		{"keeps hyphen before paragraph break", "end-\n\nNext", "end-\n\nNext"},
		{"keeps spaced dash", "this -\nthat", "this - that"},
		{"strips form feed", "page\fone", "pageone"},
		{"strips non-ascii", "café crème", "caf crme"},
		{"does not split mid-word hyphen", "wo- rd", "wo- rd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Clean(tt.in))
		})
	}
}

func TestOCRCleaner(t *testing.T) {
	c := &OCRCleaner{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"repairs mid-word hyphen", "wo- rd", "word"},
		{"repairs line break hyphen", "word- \nbreak", "wordbreak"},
		{"spaces fused sentences", "end.Next one!Then?Yes", "end. Next one! Then? Yes"},
		{"leaves spaced sentences", "end. Next", "end. Next"},
		{"leaves numbers", "pi is 3.14", "pi is 3.14"},
		{"drops control characters", "ctrl\x01chars\x7f", "ctrlchars"},
		{"drops non-ascii", "naïve", "nave"},
		{"keeps paragraphs", "one.\n\ntwo.", "one.\n\ntwo."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Clean(tt.in))
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(domain.CleanerSimple)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	r.Register(&SimpleCleaner{})
	c, err := r.Get(domain.CleanerSimple)
	require.NoError(t, err)
	assert.Equal(t, domain.CleanerSimple, c.Strategy())
}
