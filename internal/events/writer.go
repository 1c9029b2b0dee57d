package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"devteam/internal/domain"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Append inserts one event inside tx. An empty TS is stamped with Now.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, e domain.Event) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	if e.TS == "" {
		e.TS = w.Now().UTC().Format(time.RFC3339Nano)
	}
	if e.Payload == "" {
		e.Payload = "{}"
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,tick,payload_json) VALUES (?,?,?,?,?,?,?,?)`,
		e.TS, e.Type, nullable(e.ProjectID), e.EntityKind, nullable(e.EntityID), e.ActorID, e.Tick, e.Payload)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.Type, err)
	}
	return nil
}

// AppendAll writes events in one transaction.
func (w Writer) AppendAll(ctx context.Context, evts []domain.Event) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, e := range evts {
		if err := w.Append(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
