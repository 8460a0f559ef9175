package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	inMemory   bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "docingest",
	Short: "Extract text and metadata from documents",
	Long: `docingest turns PDF, DOCX, XLSX, TXT, CSV and Markdown files into one
content+metadata record. Scanned PDFs are sent through ocrmypdf.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file overlaid on environment settings")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "inmem", false, "Use an in-memory store (nothing is persisted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newLogger builds the JSON logger used by every command. Logs go to w so
// stdout stays clean for records.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
