package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scans from the SQLite history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlags(cmd); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.SQLitePath == "" {
				return fmt.Errorf("history: database.sqlite_path is not set")
			}
			logger, err := newLogger("warn", false)
			if err != nil {
				return err
			}
			defer logger.Sync()

			rec := openRecorder(cfg.Database.SQLitePath, logger)
			defer rec.Close()
			runs, err := rec.RecentRuns(viper.GetInt("limit"))
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no scans recorded")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Started", "Mode", "Requested", "Analysed", "Matched", "Skipped", "Took", "Status"})
			for _, r := range runs {
				tw.AppendRow(table.Row{
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					r.Mode,
					r.Requested,
					r.Analyzed,
					r.Matched,
					r.Skipped,
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
					r.Status,
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "number of runs to show")
	return cmd
}
