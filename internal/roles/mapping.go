package roles

import (
	"encoding/json"
	"fmt"
	"os"
)

// Mapping translates Discord role IDs to the permission groups they grant.
// The table is loaded once at startup and never mutated afterwards; changing
// it requires a restart.
type Mapping struct {
	groups map[string][]string
}

// New creates a Mapping from an in-memory table. Group order within each
// role is preserved.
func New(table map[string][]string) *Mapping {
	groups := make(map[string][]string, len(table))
	for roleID, names := range table {
		groups[roleID] = append([]string(nil), names...)
	}
	return &Mapping{groups: groups}
}

// LoadFile reads the role table from a JSON document mapping role IDs to
// arrays of permission group names, e.g.
//
//	{"138469154196028198": ["donator", "vip"]}
func LoadFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role table: %w", err)
	}

	var table map[string][]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse role table: %w", err)
	}

	return New(table), nil
}

// Len returns the number of mapped roles.
func (m *Mapping) Len() int {
	return len(m.groups)
}

// GroupsFor returns the permission groups granted by the given roles, in
// role order then each role's group order. Groups are NOT deduplicated: a
// user whose roles map to the same group twice gets that group listed (and
// granted) twice. The grant command is idempotent on the server side.
func (m *Mapping) GroupsFor(roleIDs []string) []string {
	var groups []string
	for _, roleID := range roleIDs {
		groups = append(groups, m.groups[roleID]...)
	}
	return groups
}
