package core

import (
	"context"
	"fmt"
	"text/template"

	"github.com/nodewee/docrag/pkg/cleaner"
	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/corpus"
	"github.com/nodewee/docrag/pkg/embedder"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/llm"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/ocr"
	"github.com/nodewee/docrag/pkg/rag"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
	"github.com/nodewee/docrag/pkg/vectorstore"
)

// StageFactory builds stage processors and model clients from the configuration
type StageFactory struct {
	config *config.Config
	logger *logger.Logger
}

// NewStageFactory creates a new stage factory
func NewStageFactory(cfg *config.Config, log *logger.Logger) *StageFactory {
	return &StageFactory{config: cfg, logger: log}
}

// ListStages returns the stages in pipeline order
func (f *StageFactory) ListStages() []types.Stage {
	return []types.Stage{types.StageExtract, types.StageClean, types.StageIndex}
}

// CreateStage creates the processor for stage
func (f *StageFactory) CreateStage(stage types.Stage) (interfaces.StageProcessor, error) {
	f.logger.Debug("Creating processor for stage: %s", stage)

	switch stage {
	case types.StageExtract:
		return NewExtractStage(ocr.NewOCRExtractor(f.OCRSelector(), f.config.OCRStrategy,
			ocr.WithExtractorLogger(f.logger))), nil

	case types.StageClean:
		return NewCleanStage(cleaner.New(
			cleaner.WithColumnThreshold(f.config.ColumnThreshold),
			cleaner.WithLogger(f.logger),
		)), nil

	case types.StageIndex:
		indexer, err := f.Indexer()
		if err != nil {
			return nil, err
		}
		return NewIndexStage(indexer, func(path string) (interfaces.VectorStore, error) {
			return vectorstore.Open(path)
		}), nil

	default:
		return nil, utils.NewUnsupportedError(fmt.Sprintf("unknown stage: %s", stage), nil)
	}
}

// OCRSelector registers every OCR engine. The vision engine is only available
// when a model endpoint is configured.
func (f *StageFactory) OCRSelector() *ocr.DefaultOCRSelector {
	var vision ocr.VisionModel
	if f.hasModelEndpoint() {
		vision = f.ChatModel()
	}
	return ocr.NewOCRSelector(f.logger, map[types.OCRStrategy]interfaces.OCREngine{
		types.OCRStrategyTesseract: ocr.NewTesseractEngine(f.config.TesseractLanguage),
		types.OCRStrategyLLM:       ocr.NewVisionEngine(vision),
	})
}

// Indexer creates an indexer with the configured corrections, chunking and embedder
func (f *StageFactory) Indexer() (*Indexer, error) {
	emb, err := f.Embedder()
	if err != nil {
		return nil, err
	}

	corrections := corpus.DefaultCorrections()
	if f.config.CorrectionsPath != "" {
		path, err := utils.ExpandPath(f.config.CorrectionsPath)
		if err != nil {
			return nil, err
		}
		if corrections, err = corpus.LoadCorrections(path); err != nil {
			return nil, err
		}
		f.logger.Info("Loaded %d corrections from %s", corrections.Len(), path)
	}

	return NewIndexer(emb,
		WithChunking(f.config.ChunkSize, f.config.ChunkOverlap, f.config.SectionHeaderLevel),
		WithCorrections(corrections),
		WithConcurrency(f.config.MaxConcurrency),
		WithSkipUnchanged(f.config.SkipExisting),
		WithEmbeddingModel(f.config.EmbeddingModel),
		WithIndexerLogger(f.logger),
	), nil
}

// Embedder creates the embedding client
func (f *StageFactory) Embedder() (*embedder.OpenAIEmbedder, error) {
	if err := f.requireModelEndpoint(); err != nil {
		return nil, err
	}
	return embedder.NewOpenAIEmbedder(
		embedder.WithModel(f.config.EmbeddingModel),
		embedder.WithDimensions(f.config.EmbeddingDimensions),
		embedder.WithAPIKey(f.config.APIKey),
		embedder.WithBaseURL(f.config.OpenAIBaseURL),
	), nil
}

// ChatModel creates the chat completion client
func (f *StageFactory) ChatModel() *llm.OpenAIChat {
	return llm.NewOpenAIChat(
		llm.WithModel(f.config.ChatModel),
		llm.WithTemperature(0),
		llm.WithAPIKey(f.config.APIKey),
		llm.WithBaseURL(f.config.OpenAIBaseURL),
	)
}

// Chain opens the existing index at indexPath and builds a question-answering
// chain over it. The caller closes the returned store.
func (f *StageFactory) Chain(ctx context.Context, indexPath string, prompt *template.Template, k int) (*rag.Chain, interfaces.VectorStore, error) {
	if err := f.requireModelEndpoint(); err != nil {
		return nil, nil, err
	}
	path, err := utils.ExpandPath(indexPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := vectorstore.OpenExisting(path)
	if err != nil {
		return nil, nil, err
	}

	emb, err := f.Embedder()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	f.warnOnModelMismatch(ctx, store)

	chain := rag.NewChain(rag.NewRetriever(emb, store, k), f.ChatModel(),
		rag.WithPrompt(prompt),
		rag.WithLogger(f.logger),
	)
	return chain, store, nil
}

func (f *StageFactory) warnOnModelMismatch(ctx context.Context, store interfaces.VectorStore) {
	stored, err := store.GetMeta(ctx, vectorstore.MetaEmbeddingModel)
	if err == nil && stored != "" && stored != f.config.EmbeddingModel {
		f.logger.Warn("Index was built with embedding model %q but %q is configured", stored, f.config.EmbeddingModel)
	}
}

func (f *StageFactory) hasModelEndpoint() bool {
	return f.config.APIKey != "" || f.config.OpenAIBaseURL != ""
}

func (f *StageFactory) requireModelEndpoint() error {
	if !f.hasModelEndpoint() {
		return utils.NewValidationError(
			fmt.Sprintf("%s is not set and no openai_base_url is configured", config.EnvAPIKey), nil)
	}
	return nil
}
