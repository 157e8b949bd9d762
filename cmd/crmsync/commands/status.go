package commands

import (
	"fmt"
	"os"

	"crmsync/internal/components/chrono"
	"crmsync/internal/components/telemetry"
	"crmsync/internal/report"
	"crmsync/internal/store"
	"crmsync/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var statusRuns *int

func init() {
	statusRuns = statusCmd.Flags().IntP("runs", "n", 10, "How many of the latest runs to show.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [-n <runs>]",
	Short: "Shows the saved counters and the latest sync runs.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		database, err := cfg.openDatabase()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()
		cleanup := func() { database.Close() }
		st := store.NewStore(database, chrono.NewStandardTime(), telemetry.NewSlogAPI(nil))

		state, err := st.LoadState(ctx)
		if err != nil {
			serviceutil.Fatal("failed to load state", err, cleanup)
		}
		count, err := st.CountRecords(ctx)
		if err != nil {
			serviceutil.Fatal("failed to count records", err, cleanup)
		}
		runs, err := st.Runs(ctx, *statusRuns)
		if err != nil {
			serviceutil.Fatal("failed to list runs", err, cleanup)
		}

		fmt.Printf("stored records: %d\n", count)
		fmt.Printf("last seen remote: %d pages, %d records\n", state.PageCount, state.RecordCount)
		if len(runs) == 0 {
			fmt.Println("no successful sync yet")
			return
		}
		report.RenderRuns(os.Stdout, runs)
	},
}
