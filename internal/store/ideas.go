// ABOUTME: Content idea and generation stat store methods
// ABOUTME: Tracks per-niche continuation days and suppresses duplicate titles

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// SaveIdea persists a generated content idea.
func (s *SQLiteStore) SaveIdea(ctx context.Context, idea *Idea) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO ideas (id, team_id, user_id, title, body, niche, continuation_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.execRetry(ctx, query,
		idea.ID,
		nullString(idea.TeamID),
		idea.UserID,
		idea.Title,
		idea.Body,
		idea.Niche,
		idea.ContinuationDay,
		idea.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storeErr("inserting idea", err)
	}

	s.logger.Debug("saved idea", "id", idea.ID, "niche", idea.Niche, "day", idea.ContinuationDay)
	return nil
}

// GetIdea retrieves an idea by ID.
func (s *SQLiteStore) GetIdea(ctx context.Context, id string) (*Idea, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, team_id, user_id, title, body, niche, continuation_day, created_at
		FROM ideas
		WHERE id = ?
	`

	var idea Idea
	var teamID sql.NullString
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&idea.ID,
		&teamID,
		&idea.UserID,
		&idea.Title,
		&idea.Body,
		&idea.Niche,
		&idea.ContinuationDay,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("querying idea", err)
	}

	idea.TeamID = teamID.String
	if idea.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return nil, err
	}
	return &idea, nil
}

// ListIdeas returns ideas newest first, optionally filtered by team and
// niche. A zero limit applies the default of 100.
func (s *SQLiteStore) ListIdeas(ctx context.Context, teamID, niche string, limit int) ([]*Idea, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, team_id, user_id, title, body, niche, continuation_day, created_at
		FROM ideas
		WHERE (? = '' OR team_id = ?)
		  AND (? = '' OR niche = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, teamID, teamID, niche, niche, limit)
	if err != nil {
		return nil, storeErr("querying ideas", err)
	}
	defer func() { _ = rows.Close() }()

	var ideas []*Idea
	for rows.Next() {
		var idea Idea
		var rowTeamID sql.NullString
		var createdAtStr string

		if err := rows.Scan(&idea.ID, &rowTeamID, &idea.UserID, &idea.Title, &idea.Body,
			&idea.Niche, &idea.ContinuationDay, &createdAtStr); err != nil {
			return nil, storeErr("scanning idea", err)
		}

		idea.TeamID = rowTeamID.String
		if idea.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
			return nil, err
		}
		ideas = append(ideas, &idea)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating ideas", err)
	}
	return ideas, nil
}

// CurrentDay returns the highest continuation day recorded for a niche,
// 0 when the niche has no ideas yet.
func (s *SQLiteStore) CurrentDay(ctx context.Context, niche string) (int, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var day sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(continuation_day) FROM ideas WHERE niche = ?`, niche).Scan(&day)
	if err != nil {
		return 0, storeErr("querying current day", err)
	}
	return int(day.Int64), nil
}

// TitleExists reports whether a niche already has an idea with the same
// title, compared case-insensitively.
func (s *SQLiteStore) TitleExists(ctx context.Context, niche, title string) (bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ideas WHERE niche = ? AND LOWER(title) = ?`,
		niche, strings.ToLower(title)).Scan(&count)
	if err != nil {
		return false, storeErr("checking title", err)
	}
	return count > 0, nil
}

// SaveGenerationStat records one generation run.
func (s *SQLiteStore) SaveGenerationStat(ctx context.Context, stat *GenerationStat) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO generation_stats (id, user_id, team_id, ideas_generated, niches, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.execRetry(ctx, query,
		stat.ID,
		stat.UserID,
		nullString(stat.TeamID),
		stat.IdeasGenerated,
		nullString(stat.Niches),
		stat.Occurred.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storeErr("inserting generation stat", err)
	}
	return nil
}

// GetUserStats aggregates a user's generation history. Recent counts cover
// the trailing seven days.
func (s *SQLiteStore) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var stats UserStats
	var total sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ideas_generated), 0), COUNT(*) FROM generation_stats WHERE user_id = ?`,
		userID).Scan(&total, &stats.TotalRuns)
	if err != nil {
		return nil, storeErr("querying generation totals", err)
	}
	stats.TotalIdeas = int(total.Int64)

	weekAgo := time.Now().AddDate(0, 0, -7).UTC().Format(time.RFC3339)
	var recent sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ideas_generated), 0) FROM generation_stats WHERE user_id = ? AND ts > ?`,
		userID, weekAgo).Scan(&recent)
	if err != nil {
		return nil, storeErr("querying recent generation totals", err)
	}
	stats.RecentIdeas = int(recent.Int64)

	return &stats, nil
}
