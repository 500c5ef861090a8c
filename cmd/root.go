package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/core"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/utils"
)

var (
	verbose     bool
	logLevel    string
	showVersion bool
)

// AppHandler holds what every command needs: configuration, logger and the
// stage factory and runner built from them
type AppHandler struct {
	config  *config.Config
	logger  *logger.Logger
	factory *core.StageFactory
	runner  *core.StageRunner
}

// NewAppHandler loads the configuration, applies environment variables, the
// global flags and then overrides, and validates the result
func NewAppHandler(overrides func(*config.Config)) (*AppHandler, error) {
	cfg := config.LoadConfigWithEnvOverrides()

	if verbose {
		cfg.EnableVerbose = true
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if overrides != nil {
		overrides(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeValidation, "configuration validation failed")
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.EnableVerbose)
	log.Debug("Configuration: %s", cfg)

	return &AppHandler{
		config:  cfg,
		logger:  log,
		factory: core.NewStageFactory(cfg, log),
		runner:  core.NewStageRunner(cfg, log),
	}, nil
}

// timeoutContext bounds a batch command by the configured timeout
func (h *AppHandler) timeoutContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.config.Timeout())
}

// exitOnError prints err with its type and exits non-zero
func exitOnError(err error) {
	if err == nil {
		return
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil && verbose {
			log.Fatalf("Error (%s): %s: %v", appErr.Type, appErr.Message, appErr.Cause)
		}
		log.Fatalf("Error (%s): %s", appErr.Type, appErr.Message)
	}
	log.Fatalf("Error: %v", err)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "OCR, clean, index and question a scanned technical report",
	Long: `docrag turns a scanned technical report into a searchable knowledge base.

Stages:
- extract: enhance the scan (grayscale, 3x upscale, sharpen) and OCR it to Markdown
- clean:   repair OCR artifacts and restructure malformed Markdown tables
- index:   apply corpus corrections, chunk by section, embed and store in SQLite
- ask:     interactive question answering over the index
- serve:   HTTP endpoint POST /ask over the index

Model calls go to an OpenAI-compatible API. Set OPENAI_API_KEY, or point
openai_base_url at a local server.

Examples:
  docrag pipeline scan.png                         # extract, clean and index in one go
  docrag extract scan.png --ocr llm                # OCR with a vision model
  docrag clean -i final_perfect_extraction.md      # repair tables only
  docrag index --db submarine_index.db             # (re)build the index
  docrag ask                                       # chat with the index
  docrag serve --addr 127.0.0.1:8000               # HTTP API
  docrag config set chat_model gpt-4o              # persist a setting`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Printf("docrag %s\n", version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on a usage error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output to show progress information")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false,
		"Show version information")
}
