package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"crmsync/internal/components/chrono"
	"crmsync/internal/components/telemetry"
	"crmsync/internal/harvest"
	"crmsync/internal/notify"
	"crmsync/internal/report"
	"crmsync/internal/scrapers/crm"
	"crmsync/internal/store"
	"crmsync/pkg/serviceutil"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

type syncFlags struct {
	report    bool
	dumpHttp  string
	batchSize int
}

var syncOpts syncFlags

func init() {
	syncCmd.Flags().BoolVar(&syncOpts.report, "report", false, "Write the xlsx report of every stored record after syncing.")
	syncCmd.Flags().StringVar(&syncOpts.dumpHttp, "dump-http", "", "Dump every http request and response into this directory.")
	syncCmd.Flags().IntVar(&syncOpts.batchSize, "batch-size", 0, "Pages fetched concurrently, overrides fetch.batch_size.")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [--report] [--dump-http <dir>] [--batch-size <n>]",
	Short: "Fetches the students added to the crm since the last sync.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		shutdown := setupTelemetry(ctx, cfg)
		defer shutdown()

		err = runSync(ctx, cfg, syncOpts)
		if err != nil {
			serviceutil.Fatal("sync failed", err, shutdown)
		}
	},
}

// setupTelemetry starts otlp export when it is configured, the returned function flushes it.
func setupTelemetry(ctx context.Context, cfg Config) func() {
	if !cfg.Telemetry.Enabled() {
		return func() {}
	}
	t, err := telemetry.Setup(ctx, "crmsync", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx, 15*time.Second)
	return func() {
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}
}

// runSync performs a single sync and everything that follows a successful one: saving the
// counters, writing the report and sending the notification.
func runSync(ctx context.Context, cfg Config, flags syncFlags) error {
	runId, err := random.String(8)
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger := slog.Default().With("run", runId)
	tel := telemetry.NewSlogAPI(logger)
	started := time.Now()

	database, err := cfg.openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()
	st := store.NewStore(database, chrono.NewStandardTime(), tel)

	local, err := st.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	var dump telemetry.MessageOutput
	if flags.dumpHttp != "" {
		output, err := telemetry.NewFilesystemOutput(flags.dumpHttp)
		if err != nil {
			return err
		}
		dump = output
	}
	client, err := crm.NewClient(cfg.clientOptions(dump), tel)
	if err != nil {
		return fmt.Errorf("create crm client: %w", err)
	}

	batchSize := cfg.Fetch.BatchSize
	if flags.batchSize > 0 {
		batchSize = flags.batchSize
	}

	logger.Info("syncing", "local_pages", local.PageCount, "local_records", local.RecordCount)
	res, err := harvest.Run(ctx, harvest.Deps{
		Session:   client,
		Records:   st,
		PageUrl:   cfg.Site.PageUrl,
		BatchSize: batchSize,
		Tel:       tel,
	}, local)
	if err != nil {
		return err
	}

	err = st.SaveState(ctx, res.State, &store.Run{
		ID:         runId,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Remote: harvest.LocalState{
			PageCount:   res.Remote.PageCount,
			RecordCount: res.Remote.RecordCount,
		},
		PagesFetched: res.PagesFetched,
		NewRecords:   len(res.New),
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	report.RenderSummary(os.Stdout, res, local)
	if res.UpToDate {
		logger.Info("no new records")
	} else {
		logger.Info("found new records", "count", len(res.New), "pages", res.PagesFetched)
	}

	reportPath := ""
	if flags.report || cfg.Report.OnSync {
		records, err := st.ListRecords(ctx)
		if err != nil {
			return err
		}
		err = report.WriteExcel(cfg.Report.Path, records)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		reportPath = cfg.Report.Path
		logger.Info("wrote report", "path", reportPath, "records", len(records))
	}

	if len(res.New) > 0 && cfg.Smtp.Enabled() {
		mailer := notify.NewMailer(cfg.Smtp, tel)
		err = mailer.SendNewRecords(ctx, res.New, reportPath)
		if err != nil {
			// the records are already stored, the next sync will not find them again
			logger.Warn("failed to send notification", "err", err)
		}
	}

	return nil
}
