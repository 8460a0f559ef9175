package cli

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docingest/internal/export"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest one file and print its record",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var (
	outputFormat string
	contentOnly  bool
	noStore      bool
)

func init() {
	ingestCmd.Flags().StringVarP(&outputFormat, "format", "f", export.FormatJSON, "Output format: json or yaml")
	ingestCmd.Flags().BoolVar(&contentOnly, "content-only", false, "Print only the extracted content")
	ingestCmd.Flags().BoolVar(&noStore, "no-store", false, "Extract without storing or exporting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	w := export.RecordWriter{Format: outputFormat, ContentOnly: contentOnly, Indent: true}

	if noStore {
		doc, err := a.router.Ingest(ctx, args[0])
		if err != nil {
			return err
		}
		return w.Write(cmd.OutOrStdout(), export.FromDocument(args[0], doc))
	}

	if err := a.openStore(ctx); err != nil {
		return err
	}
	res, err := a.processor.ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), export.FromRecord(res.Record))
}
