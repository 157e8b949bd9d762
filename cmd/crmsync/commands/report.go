package commands

import (
	"log/slog"

	"crmsync/internal/components/chrono"
	"crmsync/internal/components/telemetry"
	"crmsync/internal/report"
	"crmsync/internal/store"
	"crmsync/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var reportOut *string

func init() {
	reportOut = reportCmd.Flags().StringP("out", "o", "", "Where to write the workbook, overrides report.path.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--out <path/to/students.xlsx>]",
	Short: "Writes every stored student to an xlsx workbook without contacting the crm.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		database, err := cfg.openDatabase()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()
		st := store.NewStore(database, chrono.NewStandardTime(), telemetry.NewSlogAPI(nil))

		records, err := st.ListRecords(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list records", err, func() { database.Close() })
		}

		path := cfg.Report.Path
		if *reportOut != "" {
			path = *reportOut
		}
		err = report.WriteExcel(path, records)
		if err != nil {
			serviceutil.Fatal("failed to write report", err, func() { database.Close() })
		}
		slog.Info("wrote report", "path", path, "records", len(records))
	},
}
