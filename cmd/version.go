package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/ocr"
)

var (
	version   = "dev"
	gitCommit = "none"
	buildTime = "unknown"
	buildBy   = "unknown"
)

// SetVersionInfo records the build information injected into main
func SetVersionInfo(v, commit, builtAt, builtBy string) {
	version = v
	gitCommit = commit
	buildTime = builtAt
	buildBy = builtBy
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build, runtime and OCR engine information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		writeVersion(cmd.OutOrStdout())
	},
}

func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "📄 %s %s\n\n", constants.AppName, version)

	fmt.Fprintln(w, "🔖 Build:")
	fmt.Fprintf(w, "  Commit:      %s\n", gitCommit)
	fmt.Fprintf(w, "  Built at:    %s\n", buildTime)
	fmt.Fprintf(w, "  Built by:    %s\n", buildBy)
	fmt.Fprintf(w, "  Go:          %s %s/%s\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	tesseract := ocr.NewTesseractEngine(constants.DefaultTesseractLang)
	status := "not installed"
	if tesseract.IsAvailable() {
		status = "available"
	}
	fmt.Fprintln(w, "⚙️ Engines:")
	fmt.Fprintf(w, "  Tesseract:   %s\n", status)
	fmt.Fprintf(w, "  Chat model:  %s (default)\n", constants.DefaultChatModel)
	fmt.Fprintf(w, "  Embeddings:  %s (default)\n", constants.DefaultEmbeddingModel)

	if version == "dev" || strings.Contains(version, "+") {
		fmt.Fprintln(w, "\n🔧 Development build")
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
