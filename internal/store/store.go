package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crmsync/internal/components/assert"
	"crmsync/internal/components/chrono"
	"crmsync/internal/components/telemetry"
	"crmsync/internal/db"
	"crmsync/internal/harvest"
)

const (
	report_db_query = "db.query"
)

// Store persists harvested records and the counters of the last successful sync.
type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	time   chrono.TimeAPI
	tel    telemetry.API
}

func NewStore(database *sql.DB, timeAPI chrono.TimeAPI, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(timeAPI)
	assert.NotNil(tel)

	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		time:   timeAPI,
		tel:    telemetry.NewScopedAPI("store", tel),
	}
}

func (s Store) ListRecords(ctx context.Context) ([]harvest.Record, error) {
	rows, err := s.qry.ListStudents(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("ListStudents: %w", err))
		return nil, err
	}
	records := make([]harvest.Record, len(rows))
	for i, row := range rows {
		records[i] = harvest.Record{
			ID:                row.ID,
			Name:              row.FullName,
			Contact:           row.Contact,
			ProgramUniversity: row.ProgramUniversity,
		}
	}
	return records, nil
}

func (s Store) CountRecords(ctx context.Context) (int64, error) {
	count, err := s.qry.CountStudents(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("CountStudents: %w", err))
		return 0, err
	}
	return count, nil
}

// InsertRecords inserts every record in a single transaction, either all of them are
// stored or none are.
func (s Store) InsertRecords(ctx context.Context, records []harvest.Record) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("begin tx: %w", err))
		return err
	}
	defer discard()

	firstSeen := s.time.Now().Unix()
	for _, r := range records {
		err := tx.InsertStudent(ctx, db.InsertStudentParams{
			ID:                r.ID,
			FullName:          r.Name,
			Contact:           r.Contact,
			ProgramUniversity: r.ProgramUniversity,
			FirstSeen:         firstSeen,
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, fmt.Errorf("InsertStudent: %w", err), r.ID)
			return err
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return err
	}
	return nil
}

// LoadState returns the counters saved by the last successful sync, they are zero if no
// sync has succeeded yet.
func (s Store) LoadState(ctx context.Context) (harvest.LocalState, error) {
	var state harvest.LocalState
	for key, dest := range map[string]*int{
		db.StatePageCount:   &state.PageCount,
		db.StateRecordCount: &state.RecordCount,
	} {
		value, err := s.qry.GetSyncState(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			s.tel.ReportBroken(report_db_query, fmt.Errorf("GetSyncState: %w", err), key)
			return harvest.LocalState{}, err
		}
		*dest = int(value)
	}
	return state, nil
}

// Run is the summary of a successful sync.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Remote       harvest.LocalState
	PagesFetched int
	NewRecords   int
}

// SaveState persists the counters and, when `run` is not nil, the run summary together.
func (s Store) SaveState(ctx context.Context, state harvest.LocalState, run *Run) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("begin tx: %w", err))
		return err
	}
	defer discard()

	for key, value := range map[string]int{
		db.StatePageCount:   state.PageCount,
		db.StateRecordCount: state.RecordCount,
	} {
		err := tx.SetSyncState(ctx, db.SetSyncStateParams{
			Key:   key,
			Value: int64(value),
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, fmt.Errorf("SetSyncState: %w", err), key)
			return err
		}
	}

	if run != nil {
		err = tx.InsertSyncRun(ctx, db.InsertSyncRunParams{
			ID:           run.ID,
			StartedAt:    run.StartedAt.Unix(),
			FinishedAt:   run.FinishedAt.Unix(),
			PageCount:    int64(run.Remote.PageCount),
			RecordCount:  int64(run.Remote.RecordCount),
			PagesFetched: int64(run.PagesFetched),
			NewRecords:   int64(run.NewRecords),
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, fmt.Errorf("InsertSyncRun: %w", err), run.ID)
			return err
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return err
	}
	return nil
}

// Runs returns the most recent runs first.
func (s Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.qry.ListSyncRuns(ctx, int64(limit))
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("ListSyncRuns: %w", err))
		return nil, err
	}
	runs := make([]Run, len(rows))
	for i, row := range rows {
		runs[i] = Run{
			ID:         row.ID,
			StartedAt:  time.Unix(row.StartedAt, 0),
			FinishedAt: time.Unix(row.FinishedAt, 0),
			Remote: harvest.LocalState{
				PageCount:   int(row.PageCount),
				RecordCount: int(row.RecordCount),
			},
			PagesFetched: int(row.PagesFetched),
			NewRecords:   int(row.NewRecords),
		}
	}
	return runs, nil
}
