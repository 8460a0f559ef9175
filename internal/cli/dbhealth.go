package cli

import (
	"github.com/spf13/cobra"
)

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Check the document store and print a summary",
	Args:  cobra.NoArgs,
	RunE:  runDBHealth,
}

func init() {
	rootCmd.AddCommand(dbhealthCmd)
}

func runDBHealth(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if err := a.openStore(ctx); err != nil {
		cmd.Printf("DB health: FAIL (%v)\n", err)
		return err
	}
	cmd.Printf("DB health: OK (driver %s)\n", a.cfg.Store.Driver)

	recent, err := a.repo.List(ctx, 10, 0)
	if err != nil {
		return err
	}
	cmd.Printf("recent documents: %d\n", len(recent))
	for _, r := range recent {
		cmd.Printf("- [%s] %s (%s)\n", r.ID, r.SourcePath, r.Document.Format)
	}
	return nil
}
