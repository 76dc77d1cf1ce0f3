package state

import (
	"database/sql"
	"errors"
	"time"
)

// Session is what is restored on the next start.
type Session struct {
	Volume   float64
	LastPath string
}

func getSession(db *sql.DB) (*Session, error) {
	row := db.QueryRow(`SELECT volume, last_path FROM session_state WHERE id = 1`)

	var s Session
	var lastPath sql.NullString
	err := row.Scan(&s.Volume, &lastPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // no saved session is valid on first run
	}
	if err != nil {
		return nil, err
	}
	if lastPath.Valid {
		s.LastPath = lastPath.String
	}
	return &s, nil
}

func saveSession(db *sql.DB, s Session) error {
	lastPath := sql.NullString{String: s.LastPath, Valid: s.LastPath != ""}
	_, err := db.Exec(`
		INSERT INTO session_state (id, volume, last_path, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			last_path = excluded.last_path,
			saved_at = excluded.saved_at
	`, s.Volume, lastPath, time.Now().Unix())
	return err
}
