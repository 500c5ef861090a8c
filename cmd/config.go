package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persisted settings",
	Long: `Manage settings persisted in ~/.docrag/config.json.

Runtime settings (OCR engine, chunking, concurrency, ...) come from DOCRAG_*
environment variables and command flags. The API key is only read from
OPENAI_API_KEY and never written to disk.

Examples:
  docrag config list
  docrag config get chat_model
  docrag config set openai_base_url http://localhost:8080/v1
  docrag config set corrections_path ~/corrections.yaml`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persisted settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		exitOnError(err)
		path, err := config.GetConfigFilePath()
		exitOnError(err)
		writeConfigList(cmd.OutOrStdout(), cfg, path, os.Getenv(config.EnvAPIKey) != "")
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := config.GetConfigValue(args[0])
		exitOnError(err)
		fmt.Fprintf(cmd.OutOrStdout(), "📝 %s = %s\n", args[0], displayValue(value))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(config.SetConfigValue(args[0], args[1]))
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s = %s\n", args[0], args[1])
	},
}

func writeConfigList(w io.Writer, cfg *config.Config, path string, apiKeySet bool) {
	fmt.Fprintf(w, "📁 %s\n\n", path)
	for _, key := range config.ListConfigKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %-22s = %s\n", key, displayValue(value))
	}

	apiKey := "(not set)"
	if apiKeySet {
		apiKey = "(set)"
	}
	fmt.Fprintf(w, "\n🔑 %s: %s\n", config.EnvAPIKey, apiKey)
}

func displayValue(value interface{}) string {
	if s := fmt.Sprint(value); s != "" {
		return s
	}
	return "(not set)"
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
