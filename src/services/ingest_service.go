// Package services orchestrates the ingestion pipeline: detect, bind,
// normalize, filter, resolve accounts, persist, and report.
package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/models"
	"github.com/jankar86/dgi-dash/src/parsers"
	"github.com/jankar86/dgi-dash/src/processors"
	"github.com/jankar86/dgi-dash/src/store"
)

// IngestService runs the batch import. It holds no mutable state of its own;
// all shared state lives behind the stores' database handle.
type IngestService struct {
	normalizer *processors.Normalizer
	accounts   *store.AccountStore
	dividends  *store.DividendStore
	runs       *store.RunStore
}

// NewIngestService wires the pipeline onto the given database handle.
func NewIngestService(db *sql.DB, defaultAccountNumber string) *IngestService {
	return &IngestService{
		normalizer: processors.NewNormalizer(defaultAccountNumber),
		accounts:   store.NewAccountStore(db),
		dividends:  store.NewDividendStore(db),
		runs:       store.NewRunStore(db),
	}
}

// Run ingests each source in order and returns the per-source outcomes.
// Source errors are isolated: a malformed or unrecognized file is reported
// and the run continues with the next one. No error escapes the run.
func (s *IngestService) Run(sources []string) models.RunReport {
	report := models.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger.L.Info("Ingestion run starting", "runID", report.RunID, "sources", len(sources))

	for _, path := range sources {
		src := s.ingestSource(path)
		if src.Failed() {
			logger.L.Warn("Source rejected", "runID", report.RunID, "path", path, "error", src.Error)
		} else {
			logger.L.Info("Source ingested", "runID", report.RunID, "path", path,
				"dialect", src.Dialect, "parsed", src.RowsParsed,
				"inserted", src.Inserted, "skippedDuplicates", src.Skipped)
		}
		if err := s.runs.RecordSource(report.RunID, src); err != nil {
			logger.L.Error("Failed to record source outcome", "runID", report.RunID, "path", path, "error", err)
		}
		report.Sources = append(report.Sources, src)
	}

	report.FinishedAt = time.Now()
	logger.L.Info("Ingestion run finished", "runID", report.RunID,
		"inserted", report.TotalInserted(), "skippedDuplicates", report.TotalSkipped(),
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report
}

// ingestSource runs the full pipeline for one file. Every failure mode lands
// in the report's Error field instead of propagating.
func (s *IngestService) ingestSource(path string) models.SourceReport {
	report := models.SourceReport{Path: path}

	batch, err := parsers.ParseFile(path)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Dialect = batch.Dialect.String()
	report.RowsParsed = len(batch.Rows)

	txs := s.normalizer.Normalize(batch)
	txs = processors.FilterDividends(batch.Dialect, txs)

	if err := checkAccountInvariant(txs); err != nil {
		report.Error = err.Error()
		return report
	}

	accountIDs, err := s.accounts.ResolveBatch(accountNumbers(txs))
	if err != nil {
		report.Error = err.Error()
		return report
	}

	result, err := s.dividends.UpsertBatch(txs, accountIDs)
	if result != nil {
		report.Inserted = result.Inserted
		report.Skipped = result.Skipped
		report.SkippedKeys = result.SkippedKeys
	}
	if err != nil {
		report.Error = err.Error()
	}
	return report
}

// checkAccountInvariant rejects a batch whose rows would reach the ledger
// without an account number. The normalizer's default substitution makes
// this unreachable unless the default itself is configured empty.
func checkAccountInvariant(txs []models.Transaction) error {
	for _, tx := range txs {
		if tx.AccountNumber == "" {
			return fmt.Errorf("row %s has no account number", tx.Key())
		}
	}
	return nil
}

func accountNumbers(txs []models.Transaction) []string {
	seen := make(map[string]bool)
	var numbers []string
	for _, tx := range txs {
		if !seen[tx.AccountNumber] {
			seen[tx.AccountNumber] = true
			numbers = append(numbers, tx.AccountNumber)
		}
	}
	return numbers
}
