package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteLedger stores claims in a SQLite database. Unlike the CSV backend,
// the UNIQUE columns enforce the one-claim-per-account and
// one-claim-per-requester invariant at the storage layer, closing the
// read-then-append race the CSV file leaves open.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (creating if needed) the claim database at dbPath.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	l := &SQLiteLedger{db: db}

	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return l, nil
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// migrate creates the database schema
func (l *SQLiteLedger) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS claims (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id VARCHAR(36) UNIQUE NOT NULL,
			display_name VARCHAR(16) NOT NULL,
			requester_id VARCHAR(20) UNIQUE NOT NULL,
			requester_label VARCHAR(40) NOT NULL,
			requester_mention VARCHAR(25) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_account ON claims(account_id)`,
	}

	for _, migration := range migrations {
		if _, err := l.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

const claimColumns = `account_id, display_name, requester_id, requester_label, requester_mention`

// FindConflict implements Ledger. An AlreadyRegistered match wins over an
// AlreadyClaimed match, then lowest row id within a kind.
func (l *SQLiteLedger) FindConflict(ctx context.Context, requesterID, accountID string) (*Conflict, error) {
	rec, err := l.queryOne(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE requester_id = ? ORDER BY id LIMIT 1`,
		requesterID,
	)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return &Conflict{Kind: AlreadyRegistered, Existing: *rec}, nil
	}

	rec, err = l.queryOne(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE account_id = ? ORDER BY id LIMIT 1`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return &Conflict{Kind: AlreadyClaimed, Existing: *rec}, nil
	}

	return nil, nil
}

// Append implements Ledger.
func (l *SQLiteLedger) Append(ctx context.Context, rec ClaimRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO claims (`+claimColumns+`) VALUES (?, ?, ?, ?, ?)`,
		rec.AccountID, rec.DisplayName, rec.RequesterID, rec.RequesterLabel, rec.RequesterMention,
	)
	if err != nil {
		return fmt.Errorf("failed to insert claim record: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) queryOne(ctx context.Context, query string, arg string) (*ClaimRecord, error) {
	rec := &ClaimRecord{}
	err := l.db.QueryRowContext(ctx, query, arg).Scan(
		&rec.AccountID, &rec.DisplayName, &rec.RequesterID, &rec.RequesterLabel, &rec.RequesterMention,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	return rec, nil
}
