package ocr

import (
	"image"
	"image/png"
	"os"

	// decoders for scanned inputs
	_ "image/jpeg"

	"golang.org/x/image/draw"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/utils"
)

// sharpenKernel hardens glyph edges after upscaling. It sums to 1, so flat
// regions keep their intensity.
var sharpenKernel = [3][3]int{
	{-1, -1, -1},
	{-1, 9, -1},
	{-1, -1, -1},
}

// Enhance prepares a scan for OCR: grayscale, cubic upscale by factor, then sharpen.
func Enhance(src image.Image, factor int) *image.Gray {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)

	scaled := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	return Sharpen(scaled)
}

// Sharpen convolves img with the 3x3 sharpen kernel. Borders are reflected
// without repeating the edge pixel and results are clamped to 0..255.
func Sharpen(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	at := func(x, y int) int {
		return int(img.Pix[reflect101(y, h)*img.Stride+reflect101(x, w)])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sum += sharpenKernel[ky+1][kx+1] * at(x+kx, y+ky)
				}
			}
			out.Pix[y*out.Stride+x] = clampByte(sum)
		}
	}
	return out
}

// reflect101 maps i into [0,n) mirroring around the edge pixel (gfedcb|abcdefgh|gfedcba)
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

func clampByte(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// EnhanceFile reads the image at inputPath, enhances it and writes a PNG to outputPath
func EnhanceFile(inputPath, outputPath string, factor int) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return utils.NewFileAccessError(inputPath, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return utils.NewConversionError("failed to decode image "+inputPath, err)
	}

	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePermission)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to create enhanced image")
	}
	if err := png.Encode(out, Enhance(src, factor)); err != nil {
		out.Close()
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to encode enhanced image")
	}
	return out.Close()
}
