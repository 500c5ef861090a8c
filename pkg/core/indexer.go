package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nodewee/docrag/pkg/chunking"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/corpus"
	"github.com/nodewee/docrag/pkg/embedder"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
	"github.com/nodewee/docrag/pkg/vectorstore"
)

// SourceMetadataKey names the input file in every chunk's metadata
const SourceMetadataKey = "source"

// IndexReport summarises one indexing run
type IndexReport struct {
	Chunks     int
	Sections   int
	Dimensions int
	SourceHash string
	Skipped    bool
}

// Indexer prepares, chunks and embeds a cleaned document and replaces the
// contents of a vector store with the result
type Indexer struct {
	embedder       interfaces.Embedder
	corrections    *corpus.CorrectionTable
	chunkSize      int
	chunkOverlap   int
	headerLevel    int
	concurrency    int
	skipUnchanged  bool
	embeddingModel string
	logger         *logger.Logger
}

// IndexerOption configures an Indexer
type IndexerOption func(*Indexer)

// WithChunking sets chunk size, overlap and the heading level sections are split on
func WithChunking(size, overlap, headerLevel int) IndexerOption {
	return func(ix *Indexer) {
		ix.chunkSize = size
		ix.chunkOverlap = overlap
		ix.headerLevel = headerLevel
	}
}

// WithCorrections sets the corpus correction table
func WithCorrections(table *corpus.CorrectionTable) IndexerOption {
	return func(ix *Indexer) {
		ix.corrections = table
	}
}

// WithConcurrency bounds the number of embedding requests in flight
func WithConcurrency(n int) IndexerOption {
	return func(ix *Indexer) {
		ix.concurrency = n
	}
}

// WithSkipUnchanged skips indexing when the store already holds the same source
func WithSkipUnchanged(skip bool) IndexerOption {
	return func(ix *Indexer) {
		ix.skipUnchanged = skip
	}
}

// WithEmbeddingModel records the embedding model name in the index
func WithEmbeddingModel(model string) IndexerOption {
	return func(ix *Indexer) {
		ix.embeddingModel = model
	}
}

// WithIndexerLogger sets the logger
func WithIndexerLogger(log *logger.Logger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = log
	}
}

// NewIndexer creates an indexer using emb for embeddings
func NewIndexer(emb interfaces.Embedder, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		embedder:     emb,
		chunkSize:    constants.DefaultChunkSize,
		chunkOverlap: constants.DefaultChunkOverlap,
		headerLevel:  constants.DefaultSectionHeaderLevel,
		concurrency:  constants.DefaultMaxConcurrency,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index replaces the contents of store with the chunks of text. source is
// recorded in chunk metadata.
func (ix *Indexer) Index(ctx context.Context, store interfaces.VectorStore, text, source string) (*IndexReport, error) {
	prepared := corpus.NewPreparer(ix.corrections).Prepare(text)
	hash := ix.fingerprint(prepared)

	if ix.skipUnchanged {
		unchanged, err := ix.isUnchanged(ctx, store, hash)
		if err != nil {
			return nil, err
		}
		if unchanged {
			ix.logger.Progress("⏭️", "Index already up to date, skipping")
			return &IndexReport{SourceHash: hash, Skipped: true}, nil
		}
	}

	chunker := chunking.NewMarkdownChunker(ix.headerLevel, chunking.NewRecursiveSplitter(
		chunking.WithChunkSize(ix.chunkSize),
		chunking.WithChunkOverlap(ix.chunkOverlap),
	))

	extra := map[string]string{}
	if source != "" {
		extra[SourceMetadataKey] = filepath.Base(source)
	}
	docs, err := chunker.Chunk(prepared, extra)
	if errors.Is(err, chunking.ErrEmptyDocument) {
		return nil, utils.NewValidationError("nothing to index: document is empty", err)
	}
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeConversion, "failed to chunk document")
	}
	docs = dropBlank(docs)
	if len(docs) == 0 {
		return nil, utils.NewValidationError("nothing to index: no chunks produced", nil)
	}

	sections := map[string]bool{}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
		if heading := d.Metadata[constants.SectionMetadataKey]; heading != "" {
			sections[heading] = true
		}
	}
	ix.logger.Progress("✂️", "Split into %d chunks across %d sections", len(docs), len(sections))

	ix.logger.Progress("🧮", "Embedding %d chunks (%d workers)", len(docs), ix.concurrency)
	vectors, err := embedder.EmbedAll(ctx, ix.embedder, texts, ix.concurrency)
	if err != nil {
		return nil, utils.WrapError(err, "", "failed to embed chunks")
	}

	dims := len(vectors[0])
	meta := map[string]string{
		vectorstore.MetaSourceHash:     hash,
		vectorstore.MetaEmbeddingModel: ix.embeddingModel,
		vectorstore.MetaDimensions:     strconv.Itoa(dims),
	}
	if err := store.ReplaceAll(ctx, docs, vectors, meta); err != nil {
		return nil, err
	}

	return &IndexReport{
		Chunks:     len(docs),
		Sections:   len(sections),
		Dimensions: dims,
		SourceHash: hash,
	}, nil
}

func (ix *Indexer) isUnchanged(ctx context.Context, store interfaces.VectorStore, hash string) (bool, error) {
	stored, err := store.GetMeta(ctx, vectorstore.MetaSourceHash)
	if err != nil || stored != hash {
		return false, err
	}
	n, err := store.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// fingerprint identifies the prepared text together with every setting that
// changes the stored chunks or vectors
func (ix *Indexer) fingerprint(prepared string) string {
	settings := fmt.Sprintf("%s|%d|%d|%d|", ix.embeddingModel, ix.chunkSize, ix.chunkOverlap, ix.headerLevel)
	return utils.CalculateTextMD5(settings + prepared)
}

func dropBlank(docs []types.Document) []types.Document {
	kept := docs[:0]
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			kept = append(kept, d)
		}
	}
	return kept
}
