//go:build tesseract

package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/nodewee/docrag/pkg/utils"
)

func (e *TesseractEngine) IsAvailable() bool {
	return gosseract.Version() != ""
}

func (e *TesseractEngine) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", utils.NewOCRError("failed to set tesseract language", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", utils.NewOCRError("failed to load image "+imagePath, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", utils.NewOCRError("tesseract recognition failed", err)
	}
	return strings.TrimSpace(text), nil
}
