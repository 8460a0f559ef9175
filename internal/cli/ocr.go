package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docingest/constants"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [pdf]",
	Short: "Run OCR on one PDF and print the outcome",
	Long:  `Runs only the OCR step, skipping native extraction. Artifacts are removed afterwards.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

var ocrPrintText bool

func init() {
	ocrCmd.Flags().BoolVar(&ocrPrintText, "text", true, "Print the recognized text")
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	if constants.FormatForPath(args[0]) != constants.PDF {
		return fmt.Errorf("ocr expects a .pdf file, got %q", args[0])
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.ocr.Run(cmd.Context(), args[0])
	cmd.Printf("kind: %s\nduration_ms: %d\n", res.Kind, res.Duration.Milliseconds())
	if res.Err != nil {
		cmd.Printf("error: %v\n", res.Err)
	}
	if ocrPrintText {
		cmd.Println(strings.TrimRight(res.Content(), "\n"))
	}
	if !res.OK() {
		return fmt.Errorf("ocr %s", res.Kind)
	}
	return nil
}
