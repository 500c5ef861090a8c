package chunking

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
)

// ErrEmptyDocument is returned when there is nothing to chunk
var ErrEmptyDocument = errors.New("document is empty")

// MarkdownChunker splits a document into sections, then each section into
// size-bounded chunks that carry the section heading as metadata
type MarkdownChunker struct {
	level    int
	splitter *RecursiveSplitter
}

// NewMarkdownChunker creates a chunker splitting on headings of the given level
func NewMarkdownChunker(level int, splitter *RecursiveSplitter) *MarkdownChunker {
	if level < 1 || level > 6 {
		level = constants.DefaultSectionHeaderLevel
	}
	if splitter == nil {
		splitter = NewRecursiveSplitter()
	}
	return &MarkdownChunker{level: level, splitter: splitter}
}

// Chunk returns the chunks of content, each with a fresh ID. extra metadata
// is copied into every chunk.
func (c *MarkdownChunker) Chunk(content string, extra map[string]string) ([]types.Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyDocument
	}

	var docs []types.Document
	for _, section := range SplitSections(content, c.level) {
		for _, chunk := range c.splitter.SplitText(section.Content) {
			meta := make(map[string]string, len(extra)+1)
			for k, v := range extra {
				meta[k] = v
			}
			if section.Heading != "" {
				meta[constants.SectionMetadataKey] = section.Heading
			}
			docs = append(docs, types.Document{
				ID:       uuid.NewString(),
				Content:  chunk,
				Metadata: meta,
			})
		}
	}
	return docs, nil
}
