package memory

import (
	"fmt"
	"strings"
)

// SyncEntity names a syncable record type for the remote sync collaborator.
type SyncEntity string

const (
	EntityTasks       SyncEntity = "tasks"
	EntityCompletions SyncEntity = "completions"
	EntityLedgers     SyncEntity = "progression_ledgers"
	EntityStats       SyncEntity = "daily_stats"
	EntityMissions    SyncEntity = "missions"
	EntityMembers     SyncEntity = "mission_members"
)

// table maps each entity to its table and key columns. Tables are fixed at
// compile time; nothing user-supplied reaches the SQL below.
var syncKeys = map[SyncEntity][]string{
	EntityTasks:       {"id"},
	EntityCompletions: {"id"},
	EntityLedgers:     {"user_id"},
	EntityStats:       {"user_id", "day"},
	EntityMissions:    {"id"},
	EntityMembers:     {"mission_id", "user_id"},
}

// UnsyncedKeys lists the key tuples of rows not yet pushed upstream. Each
// tuple's values are ordered like syncKeys[entity].
func (s *Store) UnsyncedKeys(entity SyncEntity) ([][]string, error) {
	keys, ok := syncKeys[entity]
	if !ok {
		return nil, fmt.Errorf("unknown sync entity %q", entity)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE synced = 0`, strings.Join(keys, ", "), string(entity))
	rows, err := s.h.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list unsynced %s: %w", entity, err)
	}
	defer func() { _ = rows.Close() }()

	var out [][]string
	for rows.Next() {
		vals := make([]string, len(keys))
		dest := make([]any, len(keys))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan unsynced %s: %w", entity, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unsynced %s rows: %w", entity, err)
	}
	return out, nil
}

// MarkSynced flags one row as pushed upstream. key values are ordered like
// syncKeys[entity].
func (s *Store) MarkSynced(entity SyncEntity, key ...string) error {
	keys, ok := syncKeys[entity]
	if !ok {
		return fmt.Errorf("unknown sync entity %q", entity)
	}
	if len(key) != len(keys) {
		return fmt.Errorf("entity %s expects %d key parts, got %d", entity, len(keys), len(key))
	}
	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conds[i] = k + " = ?"
		args[i] = key[i]
	}
	query := fmt.Sprintf(`UPDATE %s SET synced = 1 WHERE %s`, string(entity), strings.Join(conds, " AND "))
	if _, err := s.h.Exec(query, args...); err != nil {
		return fmt.Errorf("mark synced %s: %w", entity, err)
	}
	return nil
}
