package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
)

var (
	cleanInput     string
	cleanOutput    string
	cleanThreshold int
	cleanForce     bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Repair OCR text and restructure malformed Markdown tables",
	Long: `Repair OCR artifacts in an extracted Markdown document.

Tables with at most --threshold columns have their cells cleaned in place.
Wider tables are flattened into a two-column "Hull No. | Name" table.
Text outside tables is copied unchanged.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := NewAppHandler(func(c *config.Config) {
			if cmd.Flags().Changed("threshold") {
				c.ColumnThreshold = cleanThreshold
			}
			if cleanForce {
				c.SkipExisting = false
			}
		})
		exitOnError(err)

		stage, err := h.factory.CreateStage(types.StageClean)
		exitOnError(err)

		ctx, cancel := h.timeoutContext()
		defer cancel()

		res, err := h.runner.Run(ctx, stage, cleanInput, cleanOutput)
		exitOnError(err)

		if !res.Skipped {
			fmt.Printf("📊 Tables: %v (%v organized, %v messy)\n",
				res.Metadata["tables"], res.Metadata["organized"], res.Metadata["messy"])
			fmt.Printf("📝 Rows: %v in, %v out\n", res.Metadata["rows_in"], res.Metadata["rows_out"])
		}
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanInput, "input", "i", constants.DefaultExtractionFile,
		"Extracted Markdown to clean")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", constants.DefaultCleanedFile,
		"Cleaned Markdown output path")
	cleanCmd.Flags().IntVar(&cleanThreshold, "threshold", constants.DefaultColumnThreshold,
		"Tables with more columns than this are restructured")
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false,
		"Run even if the output already exists")
	rootCmd.AddCommand(cleanCmd)
}
