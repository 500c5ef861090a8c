// Package embedder computes text embeddings through an OpenAI-compatible API.
package embedder

import (
	"context"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/llm"
	"github.com/nodewee/docrag/pkg/utils"
)

var _ interfaces.Embedder = (*OpenAIEmbedder)(nil)

// Model prefix for the text-embedding-3 series, which accepts a dimensions parameter
const textEmbedding3Prefix = "text-embedding-3"

// OpenAIEmbedder calls the embeddings endpoint of an OpenAI-compatible server.
// Point the base URL at a local server to use a sentence-transformers model
// such as all-MiniLM-L6-v2.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	apiKey     string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
}

// Option configures an OpenAIEmbedder
type Option func(*OpenAIEmbedder)

// WithModel sets the embedding model
func WithModel(model string) Option {
	return func(e *OpenAIEmbedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithDimensions sets the vector length requested from text-embedding-3 models
func WithDimensions(dimensions int) Option {
	return func(e *OpenAIEmbedder) {
		if dimensions > 0 {
			e.dimensions = dimensions
		}
	}
}

// WithAPIKey sets the API key
func WithAPIKey(apiKey string) Option {
	return func(e *OpenAIEmbedder) {
		e.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI-compatible server
func WithBaseURL(baseURL string) Option {
	return func(e *OpenAIEmbedder) {
		e.baseURL = baseURL
	}
}

// WithRetry sets how often and how patiently failed requests are retried
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(e *OpenAIEmbedder) {
		e.maxRetries = maxRetries
		e.retryDelay = delay
	}
}

// NewOpenAIEmbedder creates an embedder with the given options
func NewOpenAIEmbedder(opts ...Option) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		model:      constants.DefaultEmbeddingModel,
		dimensions: constants.DefaultEmbeddingDims,
		maxRetries: constants.DefaultMaxRetries,
		retryDelay: constants.DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}

	var clientOpts []option.RequestOption
	if e.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(e.apiKey))
	}
	if e.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(e.baseURL))
	}
	// retries are handled by BackoffRetrier
	clientOpts = append(clientOpts, option.WithMaxRetries(0))

	e.client = openai.NewClient(clientOpts...)
	return e
}

// GetEmbedding returns the embedding of text
func (e *OpenAIEmbedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, utils.NewValidationError("text to embed cannot be empty", nil)
	}

	request := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if strings.HasPrefix(e.model, textEmbedding3Prefix) {
		request.Dimensions = openai.Int(int64(e.dimensions))
	}

	var response *openai.CreateEmbeddingResponse
	retrier := utils.NewBackoffRetrier(e.maxRetries, e.retryDelay)
	err := retrier.Do(ctx, func() error {
		rsp, err := e.client.Embeddings.New(ctx, request)
		if err != nil {
			return llm.WrapAPIError("embedding request failed", err)
		}
		response = rsp
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, utils.NewUpstreamError("embedding response contained no vector", nil)
	}
	return response.Data[0].Embedding, nil
}

// GetDimensions returns the configured vector length
func (e *OpenAIEmbedder) GetDimensions() int {
	return e.dimensions
}

// Model returns the embedding model name
func (e *OpenAIEmbedder) Model() string {
	return e.model
}
