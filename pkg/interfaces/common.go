package interfaces

import (
	"context"

	"github.com/nodewee/docrag/pkg/types"
)

// Embedder turns text into vectors
type Embedder interface {
	// GetEmbedding returns the embedding of one text
	GetEmbedding(ctx context.Context, text string) ([]float64, error)
	// GetDimensions returns the vector length the embedder produces
	GetDimensions() int
}

// VectorStore persists embedded documents and searches them
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []types.Document, embeddings [][]float64) error
	SimilaritySearch(ctx context.Context, query []float64, k int) ([]types.ScoredDocument, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	// ReplaceAll atomically swaps all documents and metadata
	ReplaceAll(ctx context.Context, docs []types.Document, embeddings [][]float64, meta map[string]string) error
	SetMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, error)
	Close() error
}

// ChatModel completes a single prompt
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retriever finds the documents most relevant to a question
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]types.ScoredDocument, error)
}

// StageProcessor runs one pipeline stage from an input file to an output
type StageProcessor interface {
	// Stage returns the name of the stage
	Stage() types.Stage
	// ProcessFile processes inputFile and writes its result to output
	ProcessFile(ctx context.Context, inputFile, output string) (*StageResult, error)
}

// StageSettings is implemented by stages whose output depends on settings
// besides the input file. Settings returns a stable description of them.
type StageSettings interface {
	Settings() string
}

// StageResult holds the result of one pipeline stage
type StageResult struct {
	Stage       types.Stage            `json:"stage"`
	Source      string                 `json:"source"`
	Output      string                 `json:"output"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	ProcessTime int64                  `json:"process_time_ms"`
	Skipped     bool                   `json:"skipped,omitempty"`
}
