package cli

import (
	"fmt"
	"os"
	"time"

	"folio/internal/config"
	"folio/internal/journal"

	"github.com/spf13/cobra"
)

var (
	exportFrom string
	exportTo   string
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the delivery journal to an Excel file",
	Long: `Writes booking requests and contact messages recorded in the delivery
journal to an .xlsx file. --from and --to take YYYY-MM-DD dates; --to is
inclusive.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first day to include (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last day to include (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "deliveries.xlsx", "output file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	from, err := parseDay(exportFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseDay(exportTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}

	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	n, err := j.ExportXLSX(cmd.Context(), f, from, to)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d deliveries to %s\n", n, exportOut)
	return nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
