package models

import "time"

// DividendRow is the read-only view the dashboard consumes. TransactionDate
// is nil when the source date never parsed.
type DividendRow struct {
	TransactionDate *string `json:"transaction_date"`
	Symbol          string  `json:"symbol"`
	Amount          float64 `json:"amount"`
}

// SourceReport is the per-file outcome of an ingestion run.
type SourceReport struct {
	Path        string   `json:"path"`
	Dialect     string   `json:"dialect,omitempty"`
	RowsParsed  int      `json:"rows_parsed"`
	Inserted    int      `json:"inserted"`
	Skipped     int      `json:"skipped"`
	SkippedKeys []string `json:"skipped_keys,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Failed reports whether the source was rejected before any rows were written.
func (r SourceReport) Failed() bool { return r.Error != "" }

// RunReport summarizes one multi-source ingestion run. A malformed source
// never fails the run; its error lands in the matching SourceReport instead.
type RunReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceReport `json:"sources"`
}

// TotalInserted sums inserted rows across all sources in the run.
func (r RunReport) TotalInserted() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Inserted
	}
	return total
}

// TotalSkipped sums skipped-duplicate rows across all sources in the run.
func (r RunReport) TotalSkipped() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Skipped
	}
	return total
}
