package core

import (
	"context"
	"fmt"

	"github.com/nodewee/docrag/pkg/cleaner"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/ocr"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// ExtractStage runs OCR on a scanned image and writes Markdown
type ExtractStage struct {
	extractor *ocr.OCRExtractor
}

// NewExtractStage creates an extract stage
func NewExtractStage(extractor *ocr.OCRExtractor) *ExtractStage {
	return &ExtractStage{extractor: extractor}
}

func (s *ExtractStage) Stage() types.Stage { return types.StageExtract }

func (s *ExtractStage) Settings() string {
	return fmt.Sprintf("ocr=%s upscale=%d", s.extractor.Strategy(), s.extractor.Upscale())
}

func (s *ExtractStage) ProcessFile(ctx context.Context, inputFile, output string) (*interfaces.StageResult, error) {
	res, err := s.extractor.Extract(ctx, inputFile, output)
	if err != nil {
		return nil, err
	}
	return &interfaces.StageResult{
		Metadata: map[string]interface{}{
			"engine":         res.Engine,
			"enhanced_image": res.EnhancedImage,
			"characters":     res.Characters,
		},
	}, nil
}

// CleanStage repairs OCR text and restructures broken tables
type CleanStage struct {
	cleaner *cleaner.Cleaner
}

// NewCleanStage creates a clean stage
func NewCleanStage(c *cleaner.Cleaner) *CleanStage {
	return &CleanStage{cleaner: c}
}

func (s *CleanStage) Stage() types.Stage { return types.StageClean }

func (s *CleanStage) Settings() string {
	return fmt.Sprintf("threshold=%d", s.cleaner.Threshold())
}

func (s *CleanStage) ProcessFile(_ context.Context, inputFile, output string) (*interfaces.StageResult, error) {
	report, err := s.cleaner.CleanFile(inputFile, output)
	if err != nil {
		return nil, err
	}
	return &interfaces.StageResult{
		Metadata: map[string]interface{}{
			"tables":      report.Tables,
			"organized":   report.Organized,
			"messy":       report.Messy,
			"rows_in":     report.RowsIn,
			"rows_out":    report.RowsOut,
			"prose_lines": report.ProseLines,
			"threshold":   s.cleaner.Threshold(),
		},
	}, nil
}

// StoreOpener opens the vector store at path, creating it if needed
type StoreOpener func(path string) (interfaces.VectorStore, error)

// IndexStage embeds a cleaned document into the vector store at the output path
type IndexStage struct {
	indexer *Indexer
	open    StoreOpener
}

// NewIndexStage creates an index stage
func NewIndexStage(indexer *Indexer, open StoreOpener) *IndexStage {
	return &IndexStage{indexer: indexer, open: open}
}

func (s *IndexStage) Stage() types.Stage { return types.StageIndex }

func (s *IndexStage) ProcessFile(ctx context.Context, inputFile, output string) (*interfaces.StageResult, error) {
	text, err := utils.ReadTextFile(inputFile)
	if err != nil {
		return nil, err
	}

	store, err := s.open(output)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	report, err := s.indexer.Index(ctx, store, text, inputFile)
	if err != nil {
		return nil, err
	}
	return &interfaces.StageResult{
		Skipped: report.Skipped,
		Metadata: map[string]interface{}{
			"chunks":      report.Chunks,
			"sections":    report.Sections,
			"dimensions":  report.Dimensions,
			"source_hash": report.SourceHash,
		},
	}, nil
}
