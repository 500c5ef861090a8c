package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

var (
	indexInput       string
	indexDB          string
	indexCorrections string
	indexForce       bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk, embed and store a cleaned document",
	Long: `Build the vector index from a cleaned document.

The text is NFC-normalized, corrected with the corpus correction table
(built-in defaults, or a YAML file given with --corrections), stripped of HTML
comments, split into sections at level-2 headings and into chunks of about
600 characters. Chunks are embedded and stored in a SQLite index, replacing
its previous contents. An unchanged document is not re-embedded unless --force.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := NewAppHandler(func(c *config.Config) {
			if indexCorrections != "" {
				c.CorrectionsPath = indexCorrections
			}
			if indexDB != "" {
				c.IndexPath = indexDB
			}
			if indexForce {
				c.SkipExisting = false
			}
		})
		exitOnError(err)

		dbPath, err := utils.ExpandPath(h.config.IndexPath)
		exitOnError(err)

		stage, err := h.factory.CreateStage(types.StageIndex)
		exitOnError(err)

		ctx, cancel := h.timeoutContext()
		defer cancel()

		res, err := h.runner.Run(ctx, stage, indexInput, dbPath)
		exitOnError(err)

		if !res.Skipped {
			fmt.Printf("📊 Indexed %v chunks from %v sections (%v dimensions)\n",
				res.Metadata["chunks"], res.Metadata["sections"], res.Metadata["dimensions"])
		}
	},
}

func init() {
	indexCmd.Flags().StringVarP(&indexInput, "input", "i", constants.DefaultCleanedFile,
		"Cleaned Markdown to index")
	indexCmd.Flags().StringVar(&indexDB, "db", "",
		"Index database path (default: index_path setting)")
	indexCmd.Flags().StringVar(&indexCorrections, "corrections", "",
		"YAML correction table (default: corrections_path setting or built-in table)")
	indexCmd.Flags().BoolVar(&indexForce, "force", false,
		"Re-embed even if the document is unchanged")
	rootCmd.AddCommand(indexCmd)
}
