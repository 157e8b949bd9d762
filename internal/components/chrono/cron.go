package chrono

import (
	"fmt"
	"time"

	"crmsync/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

// Scheduler runs jobs on cron schedules.
type Scheduler interface {
	// Schedule registers `job` to run on a standard 5 field cron spec.
	Schedule(spec string, job func()) error
	// Next is the next time any job will run, zero if nothing is scheduled.
	Next() time.Time
	// Stop stops the scheduler and waits for running jobs to return.
	Stop()
}

// CronScheduler implements Scheduler with `github.com/robfig/cron/v3` in local time. A job
// that is still running when it is due again skips that run.
type CronScheduler struct {
	cron *cron.Cron
}

func NewCronScheduler(tel telemetry.API) CronScheduler {
	logger := cronLogger{tel: telemetry.NewScopedAPI("cron", tel)}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(time.Local),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Start()
	return CronScheduler{cron: c}
}

func (s CronScheduler) Schedule(spec string, job func()) error {
	_, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("schedule '%s': %w", spec, err)
	}
	return nil
}

func (s CronScheduler) Next() time.Time {
	var next time.Time
	for _, entry := range s.cron.Entries() {
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}

func (s CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger forwards the scheduler's logr style logs to a telemetry.API.
type cronLogger struct {
	tel telemetry.API
}

func keyValues(kv []any) []any {
	out := make([]any, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, fmt.Sprintf("%v=%v", kv[i], kv[i+1]))
	}
	return out
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(msg, keyValues(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	params := append([]any{err}, keyValues(keysAndValues)...)
	l.tel.ReportBroken(msg, params...)
}
