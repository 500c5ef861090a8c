//go:build !tesseract

package ocr

import (
	"context"

	"github.com/nodewee/docrag/pkg/utils"
)

func (e *TesseractEngine) IsAvailable() bool {
	return false
}

func (e *TesseractEngine) ExtractTextFromImage(_ context.Context, _ string) (string, error) {
	return "", utils.NewUnsupportedError("tesseract support not compiled in, rebuild with -tags tesseract", nil)
}
