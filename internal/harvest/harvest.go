package harvest

import (
	"context"
	"fmt"

	"crmsync/internal/components/assert"
	"crmsync/internal/components/telemetry"
	"crmsync/internal/scrapers/crm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("crmsync/harvest")

const (
	report_harvest_known   = "harvest.list-known"
	report_harvest_probe   = "harvest.probe"
	report_harvest_extract = "harvest.extract"
	report_harvest_insert  = "harvest.insert"
	report_harvest_new     = "harvest.new-records"
)

// Session is an authenticated connection to the crm, implemented by *crm.Client.
type Session interface {
	Login(ctx context.Context) error
	Probe(ctx context.Context) (crm.RemoteState, error)
	FetchAll(ctx context.Context, targets []crm.FetchTarget, batchSize int) ([]crm.FetchedPage, error)
	Close()
}

// RecordStore holds the records that have already been harvested.
type RecordStore interface {
	ListRecords(ctx context.Context) ([]Record, error)
	InsertRecords(ctx context.Context, records []Record) error
}

// LocalState are the counts the remote listing had after the last successful run.
type LocalState struct {
	PageCount   int
	RecordCount int
}

// PagesToFetch is the number of pages, counted from the start of the listing, that can
// contain records added since `local` was recorded. At least one page is always checked.
func PagesToFetch(local LocalState, remote crm.RemoteState) int {
	return max(remote.PageCount-local.PageCount, 1)
}

// BuildTargets renders pages 1 through n of a `{page}` url template. The listing is
// ordered newest first, so new records always land on the first pages.
func BuildTargets(template string, n int) ([]crm.FetchTarget, error) {
	targets := make([]crm.FetchTarget, 0, n)
	for page := 1; page <= n; page++ {
		target, err := crm.NewFetchTarget(crm.RenderPageUrl(template, page))
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

type Deps struct {
	Session Session
	Records RecordStore
	// PageUrl is the listing url with a `{page}` placeholder.
	PageUrl   string
	BatchSize int
	Tel       telemetry.API
}

type Result struct {
	Remote crm.RemoteState
	// State is what should be persisted once the run has been handled.
	State LocalState
	// UpToDate is set when the remote record count did not change, nothing was fetched.
	UpToDate     bool
	PagesFetched int
	New          []Record
}

// Run performs one incremental sync. It owns the session and closes it before returning.
// Any error aborts the whole run, in which case nothing has been inserted and the local
// state must not be updated.
func Run(ctx context.Context, deps Deps, local LocalState) (Result, error) {
	assert.NotNil(deps.Session)
	assert.NotNil(deps.Records)
	assert.NotNil(deps.Tel)
	assert.NotEmptyStr(deps.PageUrl)

	defer deps.Session.Close()

	tel := telemetry.NewScopedAPI("harvest", deps.Tel)

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	fail := func(err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	stored, err := deps.Records.ListRecords(ctx)
	if err != nil {
		tel.ReportBroken(report_harvest_known, err)
		return fail(fmt.Errorf("list known records: %w", err))
	}
	known := NewKnownRecordSet(stored)

	err = deps.Session.Login(ctx)
	if err != nil {
		return fail(err)
	}
	remote, err := deps.Session.Probe(ctx)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(
		attribute.Int("remote.page_count", remote.PageCount),
		attribute.Int("remote.record_count", remote.RecordCount),
		attribute.Int("local.page_count", local.PageCount),
		attribute.Int("local.record_count", local.RecordCount),
	)

	if remote.RecordCount == local.RecordCount {
		tel.ReportDebug(report_harvest_probe, "up to date", remote.RecordCount)
		return Result{
			Remote:   remote,
			State:    local,
			UpToDate: true,
		}, nil
	}

	targets, err := BuildTargets(deps.PageUrl, PagesToFetch(local, remote))
	if err != nil {
		return fail(err)
	}
	pages, err := deps.Session.FetchAll(ctx, targets, deps.BatchSize)
	if err != nil {
		return fail(err)
	}

	var rows []crm.Row
	for _, page := range pages {
		pageRows, err := crm.ExtractTable(page)
		if err != nil {
			tel.ReportBroken(report_harvest_extract, err, page.Url)
			return fail(err)
		}
		rows = append(rows, pageRows...)
	}

	records := Reconcile(rows, known)
	if len(records) > 0 {
		err = deps.Records.InsertRecords(ctx, records)
		if err != nil {
			tel.ReportBroken(report_harvest_insert, err, len(records))
			return fail(fmt.Errorf("insert records: %w", err))
		}
	}
	tel.ReportCount(report_harvest_new, int64(len(records)))
	span.SetAttributes(attribute.Int("new_records", len(records)))

	return Result{
		Remote: remote,
		State: LocalState{
			PageCount:   remote.PageCount,
			RecordCount: remote.RecordCount,
		},
		PagesFetched: len(pages),
		New:          records,
	}, nil
}
