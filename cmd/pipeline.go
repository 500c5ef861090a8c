package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/core"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

var (
	pipelineOutDir string
	pipelineOCR    string
	pipelineForce  bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <image>",
	Short: "Run extract, clean and index on a scanned image",
	Long: `Run every stage on one scanned image. Intermediate files are written to
--out-dir (default: the image's directory):

  final_perfect_extraction.md   OCR output
  enhanced_for_ai.png           enhanced scan
  cleaned_final_output.md       repaired Markdown

The index goes to the index_path setting.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := NewAppHandler(func(c *config.Config) {
			if pipelineOCR != "" {
				c.OCRStrategy = types.OCRStrategy(pipelineOCR)
			}
			if pipelineForce {
				c.SkipExisting = false
			}
		})
		exitOnError(err)

		outDir := pipelineOutDir
		if outDir == "" {
			outDir = filepath.Dir(args[0])
		}
		outDir, err = utils.ExpandPath(outDir)
		exitOnError(err)
		dbPath, err := utils.ExpandPath(h.config.IndexPath)
		exitOnError(err)

		var steps []core.Step
		input := args[0]
		outputs := map[types.Stage]string{
			types.StageExtract: filepath.Join(outDir, constants.DefaultExtractionFile),
			types.StageClean:   filepath.Join(outDir, constants.DefaultCleanedFile),
			types.StageIndex:   dbPath,
		}
		for _, stage := range h.factory.ListStages() {
			p, err := h.factory.CreateStage(stage)
			exitOnError(err)
			steps = append(steps, core.Step{Processor: p, Input: input, Output: outputs[stage]})
			input = outputs[stage]
		}

		ctx, cancel := h.timeoutContext()
		defer cancel()

		results, err := h.runner.RunPipeline(ctx, steps)
		exitOnError(err)

		for _, res := range results {
			status := "done"
			if res.Skipped {
				status = "skipped"
			}
			fmt.Printf("  %-8s %-8s %s\n", res.Stage, status, res.Output)
		}
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineOutDir, "out-dir", "",
		"Directory for intermediate files (default: the image's directory)")
	pipelineCmd.Flags().StringVar(&pipelineOCR, "ocr", "",
		"OCR engine (tesseract, llm)")
	pipelineCmd.Flags().BoolVar(&pipelineForce, "force", false,
		"Re-run stages whose outputs already exist")
	rootCmd.AddCommand(pipelineCmd)
}
