package report

import (
	"io"
	"strconv"
	"time"

	"crmsync/internal/harvest"
	"crmsync/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func RenderRecords(w io.Writer, records []harvest.Record) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"ID", "Full Name", "Contact", "Program/University"})
	for _, r := range records {
		t.AppendRow(table.Row{r.ID, r.Name, r.Contact, r.ProgramUniversity})
	}
	t.Render()
}

func RenderRuns(w io.Writer, runs []store.Run) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"Run", "Started", "Duration", "Pages", "Records", "Fetched", "New"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).String(),
			run.Remote.PageCount,
			run.Remote.RecordCount,
			run.PagesFetched,
			run.NewRecords,
		})
	}
	t.Render()
}

// RenderSummary prints the outcome of a sync run.
func RenderSummary(w io.Writer, res harvest.Result, local harvest.LocalState) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"", "Local", "Remote"})
	t.AppendRows([]table.Row{
		{"Pages", local.PageCount, res.Remote.PageCount},
		{"Records", local.RecordCount, res.Remote.RecordCount},
	})
	t.AppendFooter(table.Row{"New records", strconv.Itoa(len(res.New)), "pages fetched: " + strconv.Itoa(res.PagesFetched)})
	t.Render()
}
