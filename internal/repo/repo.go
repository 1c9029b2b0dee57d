// Package repo queries the event journal.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"devteam/internal/domain"
)

const defaultLimit = 100

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// EventFilters narrows LatestEvents. Zero values match everything.
type EventFilters struct {
	ProjectID  string
	Type       string
	EntityKind string
	EntityID   string
	// Before returns only events with a smaller id.
	Before int64
	Limit  int
}

const eventColumns = `id,ts,type,project_id,entity_kind,entity_id,actor_id,tick,payload_json`

// LatestEvents returns matching events, newest first.
func (r Repo) LatestEvents(ctx context.Context, f EventFilters) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	if f.Before > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Before)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY id DESC LIMIT ?`, eventColumns, strings.Join(clauses, " AND "))
	args = append(args, limit)
	return r.queryEvents(ctx, query, args...)
}

// EventsAfter returns events with IDs greater than the cursor in ascending order.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64, projectID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	clauses := []string{"id>?"}
	args := []any{cursor}
	if projectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, projectID)
	}
	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY id ASC LIMIT ?`, eventColumns, strings.Join(clauses, " AND "))
	args = append(args, limit)
	return r.queryEvents(ctx, query, args...)
}

// GetEvent fetches one event by id.
func (r Repo) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	evts, err := r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE id=?`, id)
	if err != nil {
		return domain.Event{}, err
	}
	if len(evts) == 0 {
		return domain.Event{}, ErrNotFound
	}
	return evts[0], nil
}

// LatestEventID returns the most recent event ID, across all projects when
// projectID is empty.
func (r Repo) LatestEventID(ctx context.Context, projectID string) (int64, error) {
	query := `SELECT COALESCE(MAX(id),0) FROM events`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id=?`
		args = append(args, projectID)
	}
	var id int64
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// CountEventsByType returns per-type event counts for a project.
func (r Repo) CountEventsByType(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT type, COUNT(*) FROM events WHERE project_id=? GROUP BY type`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		res[typ] = n
	}
	return res, rows.Err()
}

func (r Repo) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var projectID, entityID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &projectID, &e.EntityKind, &entityID, &e.ActorID, &e.Tick, &payload); err != nil {
			return nil, err
		}
		e.ProjectID = projectID.String
		e.EntityID = entityID.String
		e.Payload = payload.String
		res = append(res, e)
	}
	return res, rows.Err()
}
