package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kalambet/promptlift/internal/convo"
)

// ContextStore keeps conversation contexts in the conversation_contexts
// table so they survive restarts. It implements convo.Store.
type ContextStore struct {
	db    *sql.DB
	clock convo.Clock
}

var _ convo.Store = (*ContextStore)(nil)

// Contexts returns a ContextStore backed by s. A nil clock uses wall time.
func (s *Store) Contexts(clock convo.Clock) *ContextStore {
	if clock == nil {
		clock = convo.RealClock()
	}
	return &ContextStore{db: s.db, clock: clock}
}

func (cs *ContextStore) Save(ctx context.Context, id string, c convo.Context) (convo.Context, error) {
	if err := convo.ValidateID(id); err != nil {
		return convo.Context{}, err
	}
	stored := c.Clone()
	stored.SavedAt = cs.clock.Now()

	payload, err := json.Marshal(stored)
	if err != nil {
		return convo.Context{}, fmt.Errorf("encoding context: %w", err)
	}
	_, err = cs.db.ExecContext(ctx, `
		INSERT INTO conversation_contexts (conversation_id, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		id, string(payload), stored.SavedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return convo.Context{}, fmt.Errorf("saving context %q: %w", id, err)
	}
	return stored, nil
}

func (cs *ContextStore) Get(ctx context.Context, id string) (convo.Context, error) {
	var payload string
	err := cs.db.QueryRowContext(ctx,
		`SELECT payload FROM conversation_contexts WHERE conversation_id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return convo.Context{}, convo.ErrNotFound(id)
	}
	if err != nil {
		return convo.Context{}, fmt.Errorf("loading context %q: %w", id, err)
	}

	var c convo.Context
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return convo.Context{}, fmt.Errorf("decoding context %q: %w", id, err)
	}
	return c, nil
}

func (cs *ContextStore) Delete(ctx context.Context, id string) error {
	if _, err := cs.db.ExecContext(ctx, `DELETE FROM conversation_contexts WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("deleting context %q: %w", id, err)
	}
	return nil
}
