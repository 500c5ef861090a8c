package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/nodewee/docrag/pkg/constants"
)

// DefaultSeparators are tried in order: paragraphs, lines, table cells,
// words, then single characters
var DefaultSeparators = []string{"\n\n", "\n", "|", " ", ""}

// RecursiveSplitter breaks text into chunks of at most size runes. It splits
// on the first separator present in the text, merges neighbouring pieces back
// up to size with overlap runes carried between chunks, and recurses into any
// piece that is still too large using the remaining separators. Separators
// stay attached to the start of the piece that follows them.
type RecursiveSplitter struct {
	size       int
	overlap    int
	separators []string
}

// Option configures a RecursiveSplitter
type Option func(*RecursiveSplitter)

// WithChunkSize sets the maximum chunk size in runes
func WithChunkSize(size int) Option {
	return func(s *RecursiveSplitter) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithChunkOverlap sets how many runes consecutive chunks may share
func WithChunkOverlap(overlap int) Option {
	return func(s *RecursiveSplitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator list
func WithSeparators(separators ...string) Option {
	return func(s *RecursiveSplitter) {
		if len(separators) > 0 {
			s.separators = separators
		}
	}
}

// NewRecursiveSplitter creates a splitter with a 600 rune size and 60 rune overlap
func NewRecursiveSplitter(opts ...Option) *RecursiveSplitter {
	s := &RecursiveSplitter{
		size:       constants.DefaultChunkSize,
		overlap:    constants.DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.size {
		s.overlap = s.size - 1
	}
	return s
}

// SplitText returns the trimmed, non-empty chunks of text
func (s *RecursiveSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var chunks, good []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < s.size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good)...)
	}
	return chunks
}

// merge packs pieces into chunks no larger than size, keeping up to overlap
// runes of the previous chunk at the start of the next
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.size && len(current) > 0 {
			if chunk := joinTrimmed(current); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.overlap || (total+n > s.size && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if chunk := joinTrimmed(current); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitKeepSeparator splits text before every occurrence of separator. An
// empty separator splits into single runes.
func splitKeepSeparator(text, separator string) []string {
	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	for i, part := range strings.Split(text, separator) {
		if i > 0 {
			part = separator + part
		}
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

func joinTrimmed(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
