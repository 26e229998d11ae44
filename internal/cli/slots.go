package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"folio/internal/config"
	"folio/internal/slots"

	"github.com/spf13/cobra"
)

var slotsMonth string

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Print the bookable time slots",
	Long: `Prints the time slots offered in the booking dialog. With --month
YYYY-MM it also prints the calendar for that month, marking bookable days
with an asterisk.`,
	RunE: runSlots,
}

func init() {
	slotsCmd.Flags().StringVar(&slotsMonth, "month", "", "also print the calendar for YYYY-MM")
	rootCmd.AddCommand(slotsCmd)
}

func runSlots(cmd *cobra.Command, _ []string) error {
	schedule := slots.DefaultSchedule()
	cfg, err := config.Load(config.ResolvePath(configPath))
	switch {
	case err == nil:
		schedule = cfg.Schedule()
	case errors.Is(err, os.ErrNotExist):
		// defaults
	default:
		return fmt.Errorf("load config: %w", err)
	}

	labels, err := slots.Labels(schedule)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(labels, " "))

	if slotsMonth == "" {
		return nil
	}
	m, err := time.Parse("2006-01", slotsMonth)
	if err != nil {
		return fmt.Errorf("--month: %w", err)
	}
	grid, err := slots.BuildMonth(m.Year(), int(m.Month()), time.Now())
	if err != nil {
		return err
	}
	printMonth(cmd.OutOrStdout(), grid)
	return nil
}

func printMonth(w io.Writer, grid slots.Month) {
	fmt.Fprintln(w, grid.Title)
	fmt.Fprintln(w, strings.Join(grid.Weekdays, "  "))
	for _, week := range grid.Weeks {
		cells := make([]string, len(week))
		for i, d := range week {
			switch {
			case d.Day == 0:
				cells[i] = "   "
			case d.Selectable:
				cells[i] = fmt.Sprintf("%2d*", d.Day)
			default:
				cells[i] = fmt.Sprintf("%2d ", d.Day)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}
}
