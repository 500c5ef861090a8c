package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/rag"
	"github.com/nodewee/docrag/pkg/server"
)

var (
	serveAddr string
	serveDB   string
	serveTopK int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /ask over HTTP",
	Long: `Serve the question-answering chain over HTTP.

  POST /ask   {"question": "..."}  ->  {"answer": "...", "retrieved_sources": ["..."]}
  GET  /healthz

Answers follow the analyst prompt: grounded in the retrieved excerpts (5 by
default), with exact figures, and "Data not found in document." otherwise.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := NewAppHandler(func(c *config.Config) {
			if serveDB != "" {
				c.IndexPath = serveDB
			}
			if cmd.Flags().Changed("top-k") {
				c.HTTPTopK = serveTopK
			}
		})
		exitOnError(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		chain, store, err := h.factory.Chain(ctx, h.config.IndexPath, rag.AnalystPrompt, h.config.HTTPTopK)
		exitOnError(err)
		defer store.Close()

		exitOnError(server.New(chain, server.WithLogger(h.logger)).Run(ctx, serveAddr))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.DefaultServeAddr,
		"Listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "",
		"Index database path (default: index_path setting)")
	serveCmd.Flags().IntVarP(&serveTopK, "top-k", "k", 0,
		"Number of chunks retrieved per question (default 5)")
	rootCmd.AddCommand(serveCmd)
}
