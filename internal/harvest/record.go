package harvest

import (
	"strconv"
	"strings"

	"crmsync/internal/scrapers/crm"
	"crmsync/pkg/htmlutil"
)

// column positions of the student listing, column 3 is not used
const (
	columnId      = 0
	columnName    = 1
	columnContact = 2
	columnProgram = 4
)

type Record struct {
	ID                int64
	Name              string
	Contact           string
	ProgramUniversity string
}

// Valid reports whether the record came from a data row, header rows and malformed rows
// never have a positive id.
func (r Record) Valid() bool {
	return r.ID > 0
}

func cell(row crm.Row, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cleanName(value string) string {
	value = htmlutil.RemoveNonPrintable(value)
	return strings.TrimSpace(strings.ReplaceAll(value, "\n", ""))
}

func cleanCell(value string) string {
	value = htmlutil.RemoveNonPrintable(value)
	value = strings.ReplaceAll(value, "\n", "")
	return htmlutil.CollapseWhitespace(strings.TrimSpace(value))
}

// ParseRecord maps a table row onto a record. It never fails, rows that do not describe a
// student produce an invalid record.
func ParseRecord(row crm.Row) Record {
	id, err := strconv.ParseInt(strings.TrimSpace(cell(row, columnId)), 10, 64)
	if err != nil {
		id = 0
	}
	return Record{
		ID:                id,
		Name:              cleanName(cell(row, columnName)),
		Contact:           cleanCell(cell(row, columnContact)),
		ProgramUniversity: cleanCell(cell(row, columnProgram)),
	}
}
