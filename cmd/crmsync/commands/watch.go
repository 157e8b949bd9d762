package commands

import (
	"log/slog"
	"time"

	"crmsync/internal/components/chrono"
	"crmsync/internal/components/telemetry"
	"crmsync/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var (
	watchSchedule *string
	watchNow      *bool
)

func init() {
	watchSchedule = watchCmd.Flags().String("schedule", "0 */6 * * *", "Cron schedule of the syncs, in local time.")
	watchNow = watchCmd.Flags().Bool("now", false, "Also sync once immediately.")
	watchCmd.Flags().BoolVar(&watchOpts.report, "report", false, "Write the xlsx report after every sync.")
	watchCmd.Flags().StringVar(&watchOpts.dumpHttp, "dump-http", "", "Dump the http traffic of the latest sync into this directory.")
	watchCmd.Flags().IntVar(&watchOpts.batchSize, "batch-size", 0, "Pages fetched concurrently, overrides fetch.batch_size.")
	rootCmd.AddCommand(watchCmd)
}

var watchOpts syncFlags

var watchCmd = &cobra.Command{
	Use:   "watch [--schedule <cron spec>] [--now]",
	Short: "Keeps running and syncs on a schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		shutdown := setupTelemetry(ctx, cfg)
		defer shutdown()

		sync := func() {
			err := runSync(ctx, cfg, watchOpts)
			if err != nil {
				slog.Error("sync failed", "err", err)
			}
		}

		if *watchNow {
			sync()
		}

		scheduler := chrono.NewCronScheduler(telemetry.NewSlogAPI(nil))
		err = scheduler.Schedule(*watchSchedule, func() {
			sync()
			slog.Info("next sync", "at", scheduler.Next().Format(time.DateTime))
		})
		if err != nil {
			serviceutil.Fatal("invalid schedule", err, scheduler.Stop, shutdown)
		}
		slog.Info("watching", "schedule", *watchSchedule, "next", scheduler.Next().Format(time.DateTime))

		<-ctx.Done()
		slog.Info("stopping, waiting for a running sync to finish")
		scheduler.Stop()
	},
}
