package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/rag"
)

var (
	askDB   string
	askTopK int
)

// asker answers one question
type asker interface {
	Ask(ctx context.Context, question string) (*rag.Answer, error)
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions about the indexed document",
	Long: `Start an interactive question-answering session over the index.

Each question retrieves the closest chunks (8 by default) and asks the chat
model for a short answer that also repairs OCR mistakes. Type exit or quit to leave.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := NewAppHandler(func(c *config.Config) {
			if askDB != "" {
				c.IndexPath = askDB
			}
			if cmd.Flags().Changed("top-k") {
				c.REPLTopK = askTopK
			}
		})
		exitOnError(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		chain, store, err := h.factory.Chain(ctx, h.config.IndexPath, rag.ConcisePrompt, h.config.REPLTopK)
		exitOnError(err)
		defer store.Close()

		exitOnError(runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), chain))
	},
}

// runREPL reads questions from in until EOF, exit or quit and writes answers
// to out. A failed question is reported and the loop goes on.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, chain asker) error {
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(out, "DOCRAG CHATBOT ONLINE (CONCISE MODE)")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n[YOU]: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "exit", "quit":
			return nil
		case "":
			continue
		}

		ans, err := chain.Ask(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\n[BOT]: %s\n", ans.Text)
	}
}

func init() {
	askCmd.Flags().StringVar(&askDB, "db", "",
		"Index database path (default: index_path setting)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0,
		"Number of chunks retrieved per question (default 8)")
	rootCmd.AddCommand(askCmd)
}
