// Package rag answers questions from the indexed report by retrieving the
// closest chunks and handing them to a chat model in a single prompt.
package rag

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// VectorRetriever embeds the query and searches the store for the K nearest chunks
type VectorRetriever struct {
	embedder interfaces.Embedder
	store    interfaces.VectorStore
	k        int
}

var _ interfaces.Retriever = (*VectorRetriever)(nil)

// NewRetriever creates a retriever returning at most k documents
func NewRetriever(embedder interfaces.Embedder, store interfaces.VectorStore, k int) *VectorRetriever {
	if k < 1 {
		k = 1
	}
	return &VectorRetriever{embedder: embedder, store: store, k: k}
}

// K returns the number of documents retrieved per query
func (r *VectorRetriever) K() int {
	return r.k
}

// Retrieve returns the documents closest to query, best first
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]types.ScoredDocument, error) {
	vec, err := r.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, utils.WrapError(err, "", "failed to embed question")
	}
	return r.store.SimilaritySearch(ctx, vec, r.k)
}

// Answer is the result of one question
type Answer struct {
	Text    string
	Sources []string
}

// Chain stuffs all retrieved chunks into one prompt and asks the chat model
type Chain struct {
	retriever interfaces.Retriever
	model     interfaces.ChatModel
	prompt    *template.Template
	log       *logger.Logger
}

// Option configures a Chain
type Option func(*Chain)

// WithPrompt sets the prompt template
func WithPrompt(tmpl *template.Template) Option {
	return func(c *Chain) {
		c.prompt = tmpl
	}
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(c *Chain) {
		c.log = log
	}
}

// NewChain creates a chain using ConcisePrompt unless told otherwise
func NewChain(retriever interfaces.Retriever, model interfaces.ChatModel, opts ...Option) *Chain {
	c := &Chain{
		retriever: retriever,
		model:     model,
		prompt:    ConcisePrompt,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask answers question from the retrieved context
func (c *Chain) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, utils.NewValidationError("question must not be empty", nil)
	}

	docs, err := c.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	c.log.Debug("Retrieved %d chunks for %q", len(docs), question)

	sources := make([]string, len(docs))
	for i, d := range docs {
		sources[i] = d.Content
	}

	prompt, err := Render(c.prompt, PromptData{
		Context:  strings.Join(sources, "\n\n"),
		Question: question,
	})
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeSystem, fmt.Sprintf("failed to render prompt %s", c.prompt.Name()))
	}

	text, err := c.model.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Sources: sources}, nil
}
