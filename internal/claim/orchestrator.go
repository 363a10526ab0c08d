// Package claim implements the one-time claim workflow: resolve the target
// account, check the ledger for prior claims, grant role-mapped permission
// groups on the remote server, and record the outcome.
package claim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RalphORama/MCPerms/internal/ledger"
	"github.com/RalphORama/MCPerms/internal/roles"
)

// AccountResolver resolves an account display name to its canonical UUID.
// Names are reassignable over time, so the lookup is time-scoped.
type AccountResolver interface {
	Resolve(ctx context.Context, username string, at time.Time) (string, error)
}

// CommandSender issues console commands on a remote server instance.
// A nil error means the command was accepted.
type CommandSender interface {
	SendCommand(ctx context.Context, serverID, command string) error
}

// MemberDirectory reports whether a user is still reachable in the context
// a claim happened in. It is consulted only to decide how to address a
// prior claimant in conflict replies: mention them if they are still
// around, otherwise fall back to their stored label.
type MemberDirectory interface {
	IsMember(userID string) bool
}

// Requester is a chat identity decoupled from any one platform's object
// model.
type Requester struct {
	ID      string
	Label   string
	Mention string
	RoleIDs []string
}

// Request carries the inputs to one claim attempt. It is transient and
// never persisted.
type Request struct {
	Requester Requester
	// Username is the target account's display name as typed.
	Username string
	// Members resolves prior-claimant reachability for conflict replies.
	// May be nil, in which case labels are always used.
	Members MemberDirectory
}

// Orchestrator runs claim attempts. One attempt is processed start to
// finish per call; the orchestrator itself holds no per-request state.
type Orchestrator struct {
	ledger   ledger.Ledger
	resolver AccountResolver
	panel    CommandSender
	roles    *roles.Mapping
	serverID string
}

// NewOrchestrator wires the orchestrator's collaborators. serverID is the
// short identifier of the server commands are issued against.
func NewOrchestrator(l ledger.Ledger, resolver AccountResolver, panel CommandSender, mapping *roles.Mapping, serverID string) *Orchestrator {
	return &Orchestrator{
		ledger:   l,
		resolver: resolver,
		panel:    panel,
		roles:    mapping,
		serverID: serverID,
	}
}

// Claim processes one claim attempt and returns the reply to show the
// requester. A non-nil error means an internal fault (ledger I/O); the
// caller should log it and answer with a generic message. All expected
// rejections come back as a reply with a nil error.
func (o *Orchestrator) Claim(ctx context.Context, req Request) (string, error) {
	// Resolve the display name to a stable account ID. An unknown name
	// and a failed lookup collapse into the same user-facing outcome.
	accountID, err := o.resolver.Resolve(ctx, req.Username, time.Now())
	if err != nil {
		slog.Debug("Account resolution failed", "username", req.Username, "error", err)
		return "No account found for that name!", nil
	}

	// Eligibility is checked before any remote command is issued, so a
	// rejected claim never touches the server.
	conflict, err := o.ledger.FindConflict(ctx, req.Requester.ID, accountID)
	if err != nil {
		return "", fmt.Errorf("eligibility check failed: %w", err)
	}
	if conflict != nil {
		return conflictReply(conflict, req.Members), nil
	}

	// One grant command per (role, group) pair, in the requester's role
	// order then the role's group order. Duplicate groups from multiple
	// roles are granted (and reported) more than once; the command is
	// idempotent server-side. A failed command just drops that group
	// from the granted list.
	var granted []string
	for _, group := range o.roles.GroupsFor(req.Requester.RoleIDs) {
		cmd := fmt.Sprintf("pex group %s user add %s", group, accountID)
		if err := o.panel.SendCommand(ctx, o.serverID, cmd); err != nil {
			slog.Warn("Group grant failed", "group", group, "account", accountID, "error", err)
			continue
		}
		granted = append(granted, group)
	}

	// An attempt that granted nothing never spends the one-time claim.
	if len(granted) == 0 {
		return "You're not eligible for any groups.", nil
	}

	rec := ledger.ClaimRecord{
		AccountID:        accountID,
		DisplayName:      req.Username,
		RequesterID:      req.Requester.ID,
		RequesterLabel:   req.Requester.Label,
		RequesterMention: req.Requester.Mention,
	}
	// Grants already issued are not undone if the append fails.
	if err := o.ledger.Append(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to record claim: %w", err)
	}

	return fmt.Sprintf("Added %s to %d role(s): **%s**!",
		req.Username, len(granted), strings.Join(granted, ", ")), nil
}

func conflictReply(c *ledger.Conflict, members MemberDirectory) string {
	switch c.Kind {
	case ledger.AlreadyRegistered:
		return fmt.Sprintf("You already registered account %s [`%s`].",
			c.Existing.DisplayName, c.Existing.AccountID)
	case ledger.AlreadyClaimed:
		tag := c.Existing.RequesterLabel
		if members != nil && members.IsMember(c.Existing.RequesterID) {
			tag = c.Existing.RequesterMention
		}
		return fmt.Sprintf("%s already claimed account %s [`%s`].",
			tag, c.Existing.DisplayName, c.Existing.AccountID)
	}
	return ""
}
