package cli

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/logtail"
)

func newStatsCommand(r *runtime) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals for a year or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month < 0 || month > 12 {
				return usageError(cmd, errors.New("--month must be between 1 and 12"))
			}
			env, err := r.session()
			if err != nil {
				return err
			}
			now := time.Now()
			period := library.Period{Year: year, Month: time.Month(month)}
			if period.Year == 0 {
				period.Year = now.Year()
			}
			stats, err := app.FetchStats(cmd.Context(), env.Client, period, now)
			if err != nil {
				return err
			}

			years := make([]string, len(stats.Years))
			for i, y := range stats.Years {
				years[i] = strconv.Itoa(y)
			}
			r.printer.Header(period.Label())
			r.printer.Field("Books added", strconv.Itoa(stats.BooksAdded))
			r.printer.Field("Times issued", strconv.Itoa(stats.TimesIssued))
			r.printer.Field("Pending", strconv.Itoa(stats.Pending))
			r.printer.Field("Years", strings.Join(years, ", "))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to count (default this year)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default the whole year)")
	return cmd
}

func newLogsCommand(r *runtime) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the console log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			minLevel, err := config.ParseLevel(level)
			if err != nil {
				return usageError(cmd, err)
			}
			env, err := r.open()
			if err != nil {
				return err
			}
			raw, err := logtail.Read(env.Config.LogFile, lines)
			if err != nil {
				return err
			}
			entries := logtail.Filter(raw, minLevel)
			if len(entries) == 0 {
				r.printer.Info("No log entries in %s.", env.Config.LogFile)
				return nil
			}
			for _, e := range entries {
				r.printer.Print("%s", e.Raw)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of lines to read from the end")
	cmd.Flags().StringVar(&level, "level", "debug", "lowest level to show: debug, info, warn or error")
	return cmd
}
