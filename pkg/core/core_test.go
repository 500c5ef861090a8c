package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewee/docrag/pkg/cleaner"
	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/rag"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
	"github.com/nodewee/docrag/pkg/vectorstore"
)

const report = `# Chinese Submarine Force

Overview of the fleet.

## Nuclear

Type 094 boats are built at Hulu dao. <!-- image -->

## Conventional

The  Yuan class   uses AIP.
`

// countingEmbedder returns a small vector derived from the text
type countingEmbedder struct {
	calls atomic.Int32
	err   error
}

func (e *countingEmbedder) GetEmbedding(_ context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return []float64{float64(len(text)), float64(strings.Count(text, "a") + 1)}, nil
}

func (e *countingEmbedder) GetDimensions() int { return 2 }

func newStore(t *testing.T) *vectorstore.SQLiteStore {
	t.Helper()
	s, err := vectorstore.Open(vectorstore.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIndexer_Index(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emb := &countingEmbedder{}

	ix := NewIndexer(emb, WithEmbeddingModel("test-model"), WithConcurrency(2))
	rep, err := ix.Index(ctx, store, report, "/tmp/cleaned_final_output.md")
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Chunks)
	assert.Equal(t, 2, rep.Sections)
	assert.Equal(t, 2, rep.Dimensions)
	assert.False(t, rep.Skipped)
	assert.EqualValues(t, 3, emb.calls.Load())

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := store.SimilaritySearch(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	bySection := map[string]types.ScoredDocument{}
	for _, h := range hits {
		assert.Equal(t, "cleaned_final_output.md", h.Metadata[SourceMetadataKey])
		bySection[h.Metadata["Section"]] = h
	}
	assert.Equal(t, "Type 094 boats are built at Huludao.", bySection["Nuclear"].Content)
	assert.Equal(t, "The Yuan class uses AIP.", bySection["Conventional"].Content)
	assert.Equal(t, "# Chinese Submarine Force\n\nOverview of the fleet.", bySection[""].Content)

	for key, want := range map[string]string{
		vectorstore.MetaSourceHash:     rep.SourceHash,
		vectorstore.MetaEmbeddingModel: "test-model",
		vectorstore.MetaDimensions:     "2",
	} {
		got, err := store.GetMeta(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}
}

func TestIndexer_SkipUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emb := &countingEmbedder{}
	ix := NewIndexer(emb, WithSkipUnchanged(true))

	_, err := ix.Index(ctx, store, report, "a.md")
	require.NoError(t, err)
	calls := emb.calls.Load()

	rep, err := ix.Index(ctx, store, report, "a.md")
	require.NoError(t, err)
	assert.True(t, rep.Skipped)
	assert.Equal(t, calls, emb.calls.Load())

	rep, err = ix.Index(ctx, store, report+"\n## Extra\n\nmore\n", "a.md")
	require.NoError(t, err)
	assert.False(t, rep.Skipped)
	assert.Equal(t, 4, rep.Chunks)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// different chunking settings invalidate the fingerprint
	rep, err = NewIndexer(emb, WithSkipUnchanged(true), WithChunking(100, 10, 2)).
		Index(ctx, store, report+"\n## Extra\n\nmore\n", "a.md")
	require.NoError(t, err)
	assert.False(t, rep.Skipped)
}

func TestIndexer_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewIndexer(&countingEmbedder{}).Index(ctx, newStore(t), "  \n<!-- image -->\n", "a.md")
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))

	store := newStore(t)
	_, err = NewIndexer(&countingEmbedder{err: utils.NewUpstreamStatusError("quota", 429, nil)}).Index(ctx, store, report, "a.md")
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeUpstream, utils.GetErrorType(err))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// holeyEmbedder returns no vector for texts containing hole
type holeyEmbedder struct {
	countingEmbedder
	hole string
}

func (e *holeyEmbedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	if strings.Contains(text, e.hole) {
		return nil, nil
	}
	return e.countingEmbedder.GetEmbedding(ctx, text)
}

func TestIndexer_FailedReplaceKeepsPreviousIndex(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	prev, err := NewIndexer(&countingEmbedder{}).Index(ctx, store, report, "a.md")
	require.NoError(t, err)

	changed := strings.Replace(report, "Overview of the fleet.", "Overview of the navy.", 1)
	_, err = NewIndexer(&holeyEmbedder{hole: "AIP"}).Index(ctx, store, changed, "a.md")
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, prev.Chunks, n)
	hash, err := store.GetMeta(ctx, vectorstore.MetaSourceHash)
	require.NoError(t, err)
	assert.Equal(t, prev.SourceHash, hash)

	hits, err := store.SimilaritySearch(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotContains(t, h.Content, "navy")
	}
}

type fakeStage struct {
	stage    types.Stage
	settings string
	failures []error
	calls    int
}

func (f *fakeStage) Stage() types.Stage { return f.stage }

func (f *fakeStage) Settings() string { return f.settings }

func (f *fakeStage) ProcessFile(_ context.Context, _, output string) (*interfaces.StageResult, error) {
	f.calls++
	if f.calls <= len(f.failures) {
		return nil, f.failures[f.calls-1]
	}
	if err := os.WriteFile(output, []byte("done"), 0o644); err != nil {
		return nil, err
	}
	return &interfaces.StageResult{Metadata: map[string]interface{}{"ok": true}}, nil
}

func testConfig(skip bool) *config.Config {
	cfg := config.NewDefaults()
	cfg.SkipExisting = skip
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStageRunner_Run(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.md", "text")
	output := filepath.Join(dir, "out.md")

	stage := &fakeStage{stage: types.StageClean}
	res, err := NewStageRunner(testConfig(false), logger.Nop()).Run(context.Background(), stage, input, output)
	require.NoError(t, err)

	assert.Equal(t, types.StageClean, res.Stage)
	assert.Equal(t, input, res.Source)
	assert.Equal(t, output, res.Output)
	assert.False(t, res.Skipped)
	assert.Equal(t, true, res.Metadata["ok"])
	assert.FileExists(t, output)
}

func TestStageRunner_RetriesRecoverableErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.md", "text")

	stage := &fakeStage{stage: types.StageIndex, failures: []error{utils.NewUpstreamStatusError("busy", 503, nil)}}
	_, err := NewStageRunner(testConfig(false), logger.Nop()).Run(context.Background(), stage, input, filepath.Join(dir, "x.db"))
	require.NoError(t, err)
	assert.Equal(t, 2, stage.calls)

	stage = &fakeStage{stage: types.StageIndex, failures: []error{utils.NewUpstreamStatusError("bad key", 401, nil)}}
	_, err = NewStageRunner(testConfig(false), logger.Nop()).Run(context.Background(), stage, input, filepath.Join(dir, "y.db"))
	require.Error(t, err)
	assert.Equal(t, 1, stage.calls)
}

func TestStageRunner_SkipExisting(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.md", "text")
	output := writeFile(t, dir, "out.md", "old")
	runner := NewStageRunner(testConfig(true), logger.Nop())
	ctx := context.Background()

	// an output without a recorded fingerprint is rebuilt
	stage := &fakeStage{stage: types.StageClean, settings: "threshold=6"}
	res, err := runner.Run(ctx, stage, input, output)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, stage.calls)
	assert.FileExists(t, fingerprintPath(output))

	res, err = runner.Run(ctx, stage, input, output)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, stage.calls)

	stage.settings = "threshold=7"
	res, err = runner.Run(ctx, stage, input, output)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, stage.calls)

	writeFile(t, dir, "in.md", "changed text")
	res, err = runner.Run(ctx, stage, input, output)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, stage.calls)

	// the index stage always runs and decides for itself
	index := &fakeStage{stage: types.StageIndex}
	_, err = runner.Run(ctx, index, input, filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	_, err = runner.Run(ctx, index, input, filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	assert.Equal(t, 2, index.calls)
	assert.NoFileExists(t, fingerprintPath(filepath.Join(dir, "index.db")))
}

func TestStageRunner_CleanRerunAppliesNewInputAndThreshold(t *testing.T) {
	dir := t.TempDir()
	wide := "| 1 | A | 2 | B | 3 | C | 4 |\n"
	input := writeFile(t, dir, "extraction.md", wide)
	output := filepath.Join(dir, "cleaned.md")
	runner := NewStageRunner(config.NewDefaults(), logger.Nop())
	ctx := context.Background()

	_, err := runner.Run(ctx, NewCleanStage(cleaner.New()), input, output)
	require.NoError(t, err)
	first, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(first), "Hull No.")

	res, err := runner.Run(ctx, NewCleanStage(cleaner.New(cleaner.WithColumnThreshold(7))), input, output)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	second, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, wide, string(second))

	writeFile(t, dir, "extraction.md", "Prose only.\n")
	res, err = runner.Run(ctx, NewCleanStage(cleaner.New(cleaner.WithColumnThreshold(7))), input, output)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	third, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Prose only.\n", string(third))

	res, err = runner.Run(ctx, NewCleanStage(cleaner.New(cleaner.WithColumnThreshold(7))), input, output)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestStageRunner_ValidatesInput(t *testing.T) {
	dir := t.TempDir()
	runner := NewStageRunner(testConfig(false), logger.Nop())
	stage := &fakeStage{stage: types.StageClean}

	_, err := runner.Run(context.Background(), stage, "", filepath.Join(dir, "o"))
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))

	_, err = runner.Run(context.Background(), stage, filepath.Join(dir, "missing.md"), filepath.Join(dir, "o"))
	assert.Equal(t, utils.ErrorTypeFileAccess, utils.GetErrorType(err))

	_, err = runner.Run(context.Background(), stage, dir, filepath.Join(dir, "o"))
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))

	assert.Zero(t, stage.calls)
}

func TestStageRunner_RunPipeline(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "raw.md", "| a | b |\n|---|---|\n| 1 | 2 |\n")
	cleaned := filepath.Join(dir, "cleaned.md")
	indexed := filepath.Join(dir, "index.db")

	failing := &fakeStage{stage: types.StageIndex, failures: []error{
		utils.NewValidationError("nothing to index", nil),
	}}
	results, err := NewStageRunner(testConfig(false), logger.Nop()).RunPipeline(context.Background(), []Step{
		{Processor: NewCleanStage(cleaner.New()), Input: input, Output: cleaned},
		{Processor: failing, Input: cleaned, Output: indexed},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline stopped at index")
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Metadata["tables"])
	assert.FileExists(t, cleaned)
}

func TestIndexStage(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "cleaned.md", report)
	dbPath := filepath.Join(dir, "idx", "index.db")

	stage := NewIndexStage(NewIndexer(&countingEmbedder{}), func(path string) (interfaces.VectorStore, error) {
		return vectorstore.Open(path)
	})
	res, err := NewStageRunner(testConfig(true), logger.Nop()).Run(context.Background(), stage, input, dbPath)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Metadata["chunks"])

	store, err := vectorstore.OpenExisting(dbPath)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStageFactory(t *testing.T) {
	cfg := config.NewDefaults()
	cfg.APIKey = ""
	cfg.OpenAIBaseURL = ""
	f := NewStageFactory(cfg, logger.Nop())

	assert.Equal(t, []types.Stage{types.StageExtract, types.StageClean, types.StageIndex}, f.ListStages())

	clean, err := f.CreateStage(types.StageClean)
	require.NoError(t, err)
	assert.Equal(t, types.StageClean, clean.Stage())

	extract, err := f.CreateStage(types.StageExtract)
	require.NoError(t, err)
	assert.Equal(t, types.StageExtract, extract.Stage())

	_, err = f.CreateStage(types.StageIndex)
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))

	_, err = f.CreateStage("publish")
	assert.Equal(t, utils.ErrorTypeUnsupported, utils.GetErrorType(err))

	assert.NotContains(t, f.OCRSelector().GetAvailableStrategies(), types.OCRStrategyLLM)
}

func TestStageFactory_Chain(t *testing.T) {
	cfg := config.NewDefaults()
	cfg.APIKey = "sk-test"
	f := NewStageFactory(cfg, logger.Nop())

	missing := filepath.Join(t.TempDir(), "none.db")
	_, _, err := f.Chain(context.Background(), missing, rag.ConcisePrompt, 8)
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeNotFound, utils.GetErrorType(err))
	assert.Contains(t, err.Error(), "index not found at "+missing)

	corrections := filepath.Join(t.TempDir(), "fix.yaml")
	require.NoError(t, os.WriteFile(corrections, []byte("replacements:\n  - from: fist\n    to: first\n"), 0o644))
	cfg.CorrectionsPath = corrections
	ix, err := f.Indexer()
	require.NoError(t, err)
	assert.NotNil(t, ix)
}
