package db

import _ "embed"

//go:embed schema.sql
var Schema string

// keys of the sync_state table
const (
	StatePageCount   = "page_count"
	StateRecordCount = "record_count"
)
