package db

import (
	"database/sql"
	"errors"
	"time"
)

// SessionRow is the persisted form of a login session.
type SessionRow struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (db *DB) InsertSession(s *SessionRow) error {
	_, err := db.Exec(`
	INSERT INTO sessions (id, user_id, created_at, expires_at)
	VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	return err
}

// GetSession returns nil, nil when the session does not exist.
func (db *DB) GetSession(id string) (*SessionRow, error) {
	s := &SessionRow{ID: id}
	err := db.QueryRow(`
	SELECT user_id, created_at, expires_at
	FROM sessions WHERE id = ?`, id).Scan(&s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) DeleteSession(id string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// how many were removed.
func (db *DB) DeleteExpiredSessions(now time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
