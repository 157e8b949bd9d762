package harvest

import "crmsync/internal/scrapers/crm"

// KnownRecordSet is the set of ids stored before the run started.
type KnownRecordSet map[int64]struct{}

func NewKnownRecordSet(records []Record) KnownRecordSet {
	known := make(KnownRecordSet, len(records))
	for _, r := range records {
		known[r.ID] = struct{}{}
	}
	return known
}

func (k KnownRecordSet) Contains(id int64) bool {
	_, ok := k[id]
	return ok
}

// Reconcile returns the valid records in `rows` that are not in `known`, in the order
// they were encountered. `known` is not modified.
func Reconcile(rows []crm.Row, known KnownRecordSet) []Record {
	var out []Record
	for _, row := range rows {
		record := ParseRecord(row)
		if !record.Valid() {
			continue
		}
		if known.Contains(record.ID) {
			continue
		}
		out = append(out, record)
	}
	return out
}
