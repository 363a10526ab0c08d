// Package ledger persists completed claims and answers eligibility queries.
//
// The ledger is the sole source of truth for the one-claim-per-account,
// one-claim-per-requester invariant. Enforcement is advisory: conflicts are
// checked on read, and the read and the append are not isolated from each
// other, so two claims racing on the same identifiers can both pass the
// check before either is persisted. That window is accepted for the
// single-operator deployments this bot targets; the SQLite backend narrows
// it with UNIQUE columns.
package ledger

import "context"

// ClaimRecord is one successfully claimed account. Records are created by
// a successful claim and never updated or deleted.
type ClaimRecord struct {
	// AccountID is the canonical account UUID. Display names change;
	// this does not.
	AccountID string
	// DisplayName is the account's name at claim time. Informational
	// only, never re-validated.
	DisplayName string
	// RequesterID is the stable Discord user ID that performed the claim.
	RequesterID string
	// RequesterLabel is the requester's name#discriminator at claim time.
	RequesterLabel string
	// RequesterMention is a mention string usable to ping the requester.
	RequesterMention string
}

// ConflictKind classifies why a claim attempt is ineligible.
type ConflictKind int

const (
	// AlreadyRegistered means the requester already owns a claim,
	// regardless of which account they attempted to claim now.
	AlreadyRegistered ConflictKind = iota + 1
	// AlreadyClaimed means the target account was claimed by someone else.
	AlreadyClaimed
)

// Conflict reports why a (requester, account) pair is not eligible,
// carrying the existing record the attempt collided with.
type Conflict struct {
	Kind     ConflictKind
	Existing ClaimRecord
}

// Ledger is the persisted claim store. Implementations must treat a
// missing or empty backing store as zero records.
type Ledger interface {
	// FindConflict scans persisted records in insertion order and
	// returns at most one conflict: an AlreadyRegistered match anywhere
	// wins over an AlreadyClaimed match, then insertion order breaks
	// ties within a kind. nil means the pair is eligible.
	FindConflict(ctx context.Context, requesterID, accountID string) (*Conflict, error)

	// Append adds one record, creating the backing store on first use.
	Append(ctx context.Context, rec ClaimRecord) error
}

// findConflict applies the conflict rules to records in insertion order.
func findConflict(records []ClaimRecord, requesterID, accountID string) *Conflict {
	var claimed *Conflict
	for _, rec := range records {
		if rec.RequesterID == requesterID {
			return &Conflict{Kind: AlreadyRegistered, Existing: rec}
		}
		if claimed == nil && rec.AccountID == accountID {
			claimed = &Conflict{Kind: AlreadyClaimed, Existing: rec}
		}
	}
	return claimed
}
