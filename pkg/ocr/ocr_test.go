package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

func TestEnhance_UniformImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	out := Enhance(src, 3)

	assert.Equal(t, 12, out.Bounds().Dx())
	assert.Equal(t, 9, out.Bounds().Dy())
	for _, p := range out.Pix {
		assert.Equal(t, uint8(255), p)
	}
}

func TestSharpen(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	img.SetGray(1, 1, color.Gray{Y: 100})

	out := Sharpen(img)

	assert.Equal(t, uint8(255), out.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), out.GrayAt(2, 1).Y)
}

func TestReflect101(t *testing.T) {
	testCases := []struct {
		i, n, want int
	}{
		{i: -1, n: 5, want: 1},
		{i: 0, n: 5, want: 0},
		{i: 4, n: 5, want: 4},
		{i: 5, n: 5, want: 3},
		{i: -1, n: 1, want: 0},
		{i: 1, n: 1, want: 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, reflect101(tc.i, tc.n), "reflect101(%d, %d)", tc.i, tc.n)
	}
}

func TestStripMarkdownFence(t *testing.T) {
	assert.Equal(t, "# Title\n\n| a | b |", stripMarkdownFence("```markdown\n# Title\n\n| a | b |\n```"))
	assert.Equal(t, "plain", stripMarkdownFence("  plain \n"))
	assert.Equal(t, "```", stripMarkdownFence("```"))
}

type fakeEngine struct {
	name      string
	available bool
	text      string
	err       error
	gotPath   string
}

func (f *fakeEngine) Name() string           { return f.name }
func (f *fakeEngine) GetDescription() string { return f.name + " engine" }
func (f *fakeEngine) IsAvailable() bool      { return f.available }
func (f *fakeEngine) ExtractTextFromImage(_ context.Context, path string) (string, error) {
	f.gotPath = path
	return f.text, f.err
}

func TestSelector(t *testing.T) {
	sel := NewOCRSelector(nil, map[types.OCRStrategy]interfaces.OCREngine{
		types.OCRStrategyTesseract: &fakeEngine{name: "tess", available: true},
		types.OCRStrategyLLM:       &fakeEngine{name: "vision", available: false},
	})

	engine, err := sel.SelectOCRStrategy(types.OCRStrategyTesseract)
	require.NoError(t, err)
	assert.Equal(t, "tess", engine.Name())

	_, err = sel.SelectOCRStrategy(types.OCRStrategyLLM)
	assert.Equal(t, utils.ErrorTypeUnsupported, utils.GetErrorType(err))

	_, err = sel.SelectOCRStrategy("surya")
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))

	assert.Equal(t, []types.OCRStrategy{types.OCRStrategyTesseract}, sel.GetAvailableStrategies())
}

type fakeVision struct {
	instruction string
	size        int
	reply       string
	err         error
}

func (f *fakeVision) CompleteWithImage(_ context.Context, instruction string, image []byte) (string, error) {
	f.instruction = instruction
	f.size = len(image)
	return f.reply, f.err
}

func TestVisionEngine(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "page.png")

	vision := &fakeVision{reply: "```md\n## Submarines\n```"}
	engine := NewVisionEngine(vision)
	require.True(t, engine.IsAvailable())

	text, err := engine.ExtractTextFromImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "## Submarines", text)
	assert.Equal(t, VisionInstruction, vision.instruction)
	assert.Positive(t, vision.size)

	_, err = engine.ExtractTextFromImage(context.Background(), filepath.Join(dir, "missing.png"))
	assert.Equal(t, utils.ErrorTypeFileAccess, utils.GetErrorType(err))

	assert.False(t, NewVisionEngine(nil).IsAvailable())
}

func TestOCRExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, "scan.png")
	output := filepath.Join(dir, "out", "extraction.md")

	engine := &fakeEngine{name: "tess", available: true, text: "| Hull No. | Name |"}
	sel := NewOCRSelector(nil, map[types.OCRStrategy]interfaces.OCREngine{types.OCRStrategyTesseract: engine})

	res, err := NewOCRExtractor(sel, types.OCRStrategyTesseract).Extract(context.Background(), input, output)
	require.NoError(t, err)

	assert.Equal(t, "tess", res.Engine)
	assert.Equal(t, filepath.Join(dir, "out", "enhanced_for_ai.png"), res.EnhancedImage)
	assert.Equal(t, res.EnhancedImage, engine.gotPath)
	assert.Equal(t, len("| Hull No. | Name |"), res.Characters)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "| Hull No. | Name |\n", string(content))

	f, err := os.Open(res.EnhancedImage)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Width)
	assert.Equal(t, 6, cfg.Height)
}

func TestOCRExtractor_Options(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, "scan.png")
	enhanced := filepath.Join(dir, "work", "big.png")

	engine := &fakeEngine{name: "tess", available: true, text: "Kilo"}
	sel := NewOCRSelector(nil, map[types.OCRStrategy]interfaces.OCREngine{types.OCRStrategyTesseract: engine})

	res, err := NewOCRExtractor(sel, types.OCRStrategyTesseract, WithUpscale(2), WithEnhancedImagePath(enhanced)).
		Extract(context.Background(), input, filepath.Join(dir, "out.md"))
	require.NoError(t, err)
	assert.Equal(t, enhanced, res.EnhancedImage)

	f, err := os.Open(enhanced)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
}

func TestOCRExtractor_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, "scan.png")
	notImage := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(notImage, []byte("# x"), 0o644))

	testCases := []struct {
		name     string
		input    string
		engine   *fakeEngine
		wantType utils.ErrorType
	}{
		{name: "missing input", input: filepath.Join(dir, "nope.png"), engine: &fakeEngine{available: true}, wantType: utils.ErrorTypeFileAccess},
		{name: "not an image", input: notImage, engine: &fakeEngine{available: true}, wantType: utils.ErrorTypeUnsupported},
		{name: "engine fails", input: input, engine: &fakeEngine{available: true, err: errors.New("tesseract crashed")}, wantType: utils.ErrorTypeOCR},
		{name: "no text", input: input, engine: &fakeEngine{available: true}, wantType: utils.ErrorTypeOCR},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sel := NewOCRSelector(nil, map[types.OCRStrategy]interfaces.OCREngine{types.OCRStrategyTesseract: tc.engine})
			_, err := NewOCRExtractor(sel, types.OCRStrategyTesseract).
				Extract(context.Background(), tc.input, filepath.Join(dir, "out.md"))
			require.Error(t, err)
			assert.Equal(t, tc.wantType, utils.GetErrorType(err))
		})
	}
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 200})
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}
