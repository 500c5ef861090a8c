package ocr

import (
	"context"
	"os"
	"strings"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/utils"
)

// === Tesseract ===

// TesseractEngine runs the local Tesseract library through gosseract. The
// cgo binding is only compiled with the "tesseract" build tag; without it
// the engine reports itself unavailable.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates a Tesseract engine. language may join several
// languages with '+', e.g. "eng+chi_sim".
func NewTesseractEngine(language string) interfaces.OCREngine {
	if language == "" {
		language = constants.DefaultTesseractLang
	}
	return &TesseractEngine{languages: strings.Split(language, "+")}
}

func (e *TesseractEngine) Name() string {
	return "Tesseract"
}

func (e *TesseractEngine) GetDescription() string {
	return "Tesseract OCR (" + strings.Join(e.languages, "+") + "), plain text output"
}

// === Vision LLM ===

// VisionModel answers an instruction about an image
type VisionModel interface {
	CompleteWithImage(ctx context.Context, instruction string, image []byte) (string, error)
}

// VisionInstruction asks the model for a layout-preserving transcription
const VisionInstruction = `Transcribe all text in this scanned page to Markdown.
Keep the reading order and the section headings (use ## for section titles).
Render every table as a Markdown pipe table with a header separator row, one table row per printed row.
Do not summarise, translate or correct the text. Output only the Markdown.`

// VisionEngine transcribes images with a multimodal chat model
type VisionEngine struct {
	model       VisionModel
	instruction string
}

// NewVisionEngine creates an engine backed by model. A nil model makes the engine unavailable.
func NewVisionEngine(model VisionModel) interfaces.OCREngine {
	return &VisionEngine{model: model, instruction: VisionInstruction}
}

func (e *VisionEngine) Name() string {
	return "LLM Vision"
}

func (e *VisionEngine) GetDescription() string {
	return "Multimodal chat model, Markdown output with tables"
}

func (e *VisionEngine) IsAvailable() bool {
	return e.model != nil
}

func (e *VisionEngine) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", utils.NewFileAccessError(imagePath, err)
	}

	text, err := e.model.CompleteWithImage(ctx, e.instruction, data)
	if err != nil {
		return "", utils.WrapError(err, "", "vision transcription failed")
	}
	return stripMarkdownFence(text), nil
}

// stripMarkdownFence removes a ```markdown ... ``` wrapper some models add
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(s, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSpace(body[nl+1:])
}
