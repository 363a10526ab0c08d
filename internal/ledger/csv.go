package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// header is the fixed column set of the claim file.
var header = []string{"ACCOUNT_ID", "DISPLAY_NAME", "REQUESTER_ID", "REQUESTER_LABEL", "REQUESTER_MENTION"}

// CSVLedger stores claims in an append-only CSV file. The whole file is
// re-read on every eligibility check; claim volume is a handful of rows,
// not a database workload.
type CSVLedger struct {
	path string
}

// NewCSVLedger creates a ledger backed by the CSV file at path. The file
// does not have to exist yet; it is created with its header on the first
// append.
func NewCSVLedger(path string) *CSVLedger {
	return &CSVLedger{path: path}
}

// FindConflict implements Ledger.
func (l *CSVLedger) FindConflict(ctx context.Context, requesterID, accountID string) (*Conflict, error) {
	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	return findConflict(records, requesterID, accountID), nil
}

// Append implements Ledger.
func (l *CSVLedger) Append(ctx context.Context, rec ClaimRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create claim file directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open claim file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat claim file: %w", err)
	}

	w := csv.NewWriter(f)

	// A zero-size file has no schema yet; write the header first.
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write claim file header: %w", err)
		}
	}

	row := []string{rec.AccountID, rec.DisplayName, rec.RequesterID, rec.RequesterLabel, rec.RequesterMention}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write claim record: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write claim record: %w", err)
	}
	return nil
}

// readAll loads every persisted record. A missing, empty, or header-only
// file yields zero records.
func (l *CSVLedger) readAll() ([]ClaimRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open claim file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read claim file: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]ClaimRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, ClaimRecord{
			AccountID:        row[0],
			DisplayName:      row[1],
			RequesterID:      row[2],
			RequesterLabel:   row[3],
			RequesterMention: row[4],
		})
	}
	return records, nil
}
