// Package storage keeps the history of finished dialogue sessions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
)

// DefaultRecentLimit caps Recent when no limit is given.
const DefaultRecentLimit = 20

var errNilDB = errors.New("storage: nil database handle")

const insertSession = `INSERT INTO dialogue_sessions
	(id, platform, owner_id, trigger_message_id, selected_value, actions, outcome, error, started_at, ended_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecent = `SELECT id, platform, owner_id, trigger_message_id, selected_value, actions, outcome, error, started_at, ended_at
	FROM dialogue_sessions
	WHERE platform = ? AND owner_id = ?
	ORDER BY started_at DESC
	LIMIT ?`

type sessionRow struct {
	ID               string    `db:"id"`
	Platform         string    `db:"platform"`
	OwnerID          string    `db:"owner_id"`
	TriggerMessageID string    `db:"trigger_message_id"`
	SelectedValue    string    `db:"selected_value"`
	Actions          int       `db:"actions"`
	Outcome          string    `db:"outcome"`
	Error            string    `db:"error"`
	StartedAt        time.Time `db:"started_at"`
	EndedAt          time.Time `db:"ended_at"`
}

func (r sessionRow) record() dialogue.SessionRecord {
	return dialogue.SessionRecord{
		ID:               r.ID,
		Platform:         r.Platform,
		Owner:            dialogue.UserID(r.OwnerID),
		TriggerMessageID: r.TriggerMessageID,
		Selected:         r.SelectedValue,
		Actions:          r.Actions,
		Outcome:          dialogue.Outcome(r.Outcome),
		Err:              r.Error,
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
	}
}

// SessionStore writes one row per finished session. It implements dialogue.Recorder.
type SessionStore struct {
	db *sqlx.DB
}

// NewSessionStore wraps an open database handle.
func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Record inserts rec. Timestamps are stored in UTC.
func (s *SessionStore) Record(ctx context.Context, rec dialogue.SessionRecord) error {
	if s == nil || s.db == nil {
		return errNilDB
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(insertSession),
		rec.ID,
		rec.Platform,
		string(rec.Owner),
		rec.TriggerMessageID,
		rec.Selected,
		rec.Actions,
		string(rec.Outcome),
		rec.Err,
		rec.StartedAt.UTC(),
		rec.EndedAt.UTC(),
	)
	logger.Debug(ctx, logger.ComponentStore, "session.insert",
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
	)
	if err != nil {
		return fmt.Errorf("storage: insert session %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns the newest sessions of one user on one platform.
func (s *SessionStore) Recent(ctx context.Context, platform string, owner dialogue.UserID, limit int) ([]dialogue.SessionRecord, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectRecent), platform, string(owner), limit); err != nil {
		return nil, fmt.Errorf("storage: recent sessions: %w", err)
	}
	out := make([]dialogue.SessionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}
