// Package ocr turns a scanned page into Markdown: the image is enhanced for
// small print and then read by a pluggable OCR engine.
package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// Result describes one extraction
type Result struct {
	Engine        string
	EnhancedImage string
	Output        string
	Characters    int
	Duration      time.Duration
}

// OCRExtractor enhances an image and runs the selected OCR engine on it
type OCRExtractor struct {
	selector      interfaces.OCRSelector
	strategy      types.OCRStrategy
	logger        *logger.Logger
	upscale       int
	enhancedImage string
}

// ExtractorOption configures an OCRExtractor
type ExtractorOption func(*OCRExtractor)

// WithUpscale sets the upscale factor applied before OCR
func WithUpscale(factor int) ExtractorOption {
	return func(e *OCRExtractor) {
		e.upscale = factor
	}
}

// WithEnhancedImagePath sets where the enhanced image is written. By default it
// goes next to the output file.
func WithEnhancedImagePath(path string) ExtractorOption {
	return func(e *OCRExtractor) {
		e.enhancedImage = path
	}
}

// WithExtractorLogger sets the logger
func WithExtractorLogger(log *logger.Logger) ExtractorOption {
	return func(e *OCRExtractor) {
		e.logger = log
	}
}

// NewOCRExtractor creates an extractor using strategy
func NewOCRExtractor(selector interfaces.OCRSelector, strategy types.OCRStrategy, opts ...ExtractorOption) *OCRExtractor {
	e := &OCRExtractor{
		selector: selector,
		strategy: strategy,
		logger:   logger.Nop(),
		upscale:  constants.DefaultUpscaleFactor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the OCR strategy the extractor selects
func (e *OCRExtractor) Strategy() types.OCRStrategy {
	return e.strategy
}

// Upscale returns the upscale factor applied before OCR
func (e *OCRExtractor) Upscale() int {
	return e.upscale
}

// Extract enhances imagePath, runs OCR on the enhanced copy and writes the text to outputPath
func (e *OCRExtractor) Extract(ctx context.Context, imagePath, outputPath string) (*Result, error) {
	start := time.Now()

	info, err := utils.GetFileInfo(imagePath)
	if err != nil {
		return nil, err
	}
	if info.MediaType != types.ImageMediaType {
		return nil, utils.NewUnsupportedError(fmt.Sprintf("not an image file: %s", imagePath), nil)
	}

	engine, err := e.selector.SelectOCRStrategy(e.strategy)
	if err != nil {
		return nil, err
	}
	e.logger.ProgressAlways("🔍", "Using OCR engine: %s", engine.Name())

	enhanced := e.enhancedImage
	if enhanced == "" {
		enhanced = utils.SiblingPath(outputPath, constants.DefaultEnhancedImage)
	}
	if err := utils.EnsureDir(filepath.Dir(enhanced)); err != nil {
		return nil, err
	}

	e.logger.Progress("🖼️", "Enhancing image (grayscale, %dx upscale, sharpen)", e.upscale)
	if err := EnhanceFile(imagePath, enhanced, e.upscale); err != nil {
		return nil, err
	}

	e.logger.Progress("📖", "Recognizing text")
	text, err := engine.ExtractTextFromImage(ctx, enhanced)
	if err != nil {
		return nil, utils.WrapError(err, "", "OCR failed")
	}
	if text == "" {
		return nil, utils.NewOCRError("no text recognized in "+imagePath, nil)
	}

	if err := utils.WriteTextFile(outputPath, text+"\n"); err != nil {
		return nil, err
	}

	return &Result{
		Engine:        engine.Name(),
		EnhancedImage: enhanced,
		Output:        outputPath,
		Characters:    len([]rune(text)),
		Duration:      time.Since(start),
	}, nil
}
