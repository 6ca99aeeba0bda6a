// ABOUTME: Activity log entity and store methods for team-scoped actions
// ABOUTME: Append-only; entries are immutable once written and queried newest first

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppendActivity appends a new entry to the activity log.
// Generates ID and Occurred if not set.
func (s *SQLiteStore) AppendActivity(ctx context.Context, e *ActivityEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Occurred.IsZero() {
		e.Occurred = time.Now().UTC()
	}

	var detailJSON *string
	if e.Detail != nil {
		data, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("marshaling activity detail: %w", err)
		}
		str := string(data)
		detailJSON = &str
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO activity_log (id, team_id, actor_id, action, detail_json, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.execRetry(ctx, query,
		e.ID,
		e.TeamID,
		e.ActorID,
		e.Action,
		detailJSON,
		e.Occurred.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storeErr("inserting activity entry", err)
	}

	s.logger.Debug("appended activity",
		"id", e.ID,
		"team_id", e.TeamID,
		"actor", e.ActorID,
		"action", e.Action,
	)
	return nil
}

// normalizeActivityLimit applies default (100) and cap (1000) to the limit.
func normalizeActivityLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

const activityQuery = `
	SELECT id, team_id, actor_id, action, detail_json, ts
	FROM activity_log
	WHERE team_id = ?
	  AND (? IS NULL OR ts >= ?)
	  AND (? IS NULL OR ts <= ?)
	  AND (? IS NULL OR actor_id = ?)
	  AND (? IS NULL OR action = ?)
	ORDER BY ts DESC, id DESC
	LIMIT ?
`

// ListActivity returns a team's activity entries matching the filter,
// newest first. Re-running the same query over the same state yields the
// same sequence.
func (s *SQLiteStore) ListActivity(ctx context.Context, teamID string, f ActivityFilter) ([]ActivityEntry, error) {
	limit := normalizeActivityLimit(f.Limit)

	var sinceStr, untilStr *string
	if f.Since != nil {
		v := f.Since.UTC().Format(time.RFC3339)
		sinceStr = &v
	}
	if f.Until != nil {
		v := f.Until.UTC().Format(time.RFC3339)
		untilStr = &v
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, activityQuery,
		teamID,
		sinceStr, sinceStr,
		untilStr, untilStr,
		f.ActorID, f.ActorID,
		f.Action, f.Action,
		limit,
	)
	if err != nil {
		return nil, storeErr("querying activity log", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var detailJSON *string
		var tsStr string

		if err := rows.Scan(&e.ID, &e.TeamID, &e.ActorID, &e.Action, &detailJSON, &tsStr); err != nil {
			return nil, storeErr("scanning activity entry", err)
		}

		if e.Occurred, err = parseTime("ts", tsStr); err != nil {
			return nil, err
		}
		if detailJSON != nil {
			if err := json.Unmarshal([]byte(*detailJSON), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshaling detail: %w", err)
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating activity entries", err)
	}

	if entries == nil {
		entries = []ActivityEntry{}
	}
	return entries, nil
}
