package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
)

var (
	extractOutput string
	extractOCR    string
	extractForce  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Enhance a scanned image and OCR it to Markdown",
	Long: `Enhance a scanned page for small print (grayscale, 3x cubic upscale, sharpen),
write the enhanced copy next to the output, and run OCR on it.

OCR engines:
- tesseract: local Tesseract library, plain text
- llm:       multimodal chat model, Markdown with tables (needs OPENAI_API_KEY)`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := NewAppHandler(func(c *config.Config) {
			if extractOCR != "" {
				c.OCRStrategy = types.OCRStrategy(extractOCR)
			}
			if extractForce {
				c.SkipExisting = false
			}
		})
		exitOnError(err)

		stage, err := h.factory.CreateStage(types.StageExtract)
		exitOnError(err)

		ctx, cancel := h.timeoutContext()
		defer cancel()

		res, err := h.runner.Run(ctx, stage, args[0], extractOutput)
		exitOnError(err)

		if !res.Skipped {
			fmt.Printf("📊 OCR engine: %v\n", res.Metadata["engine"])
			fmt.Printf("📝 Extracted %v characters to %s\n", res.Metadata["characters"], res.Output)
		}
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", constants.DefaultExtractionFile,
		"Markdown output path")
	extractCmd.Flags().StringVar(&extractOCR, "ocr", "",
		"OCR engine (tesseract, llm)")
	extractCmd.Flags().BoolVar(&extractForce, "force", false,
		"Run even if the output already exists")
	rootCmd.AddCommand(extractCmd)
}
