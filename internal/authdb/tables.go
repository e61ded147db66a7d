package authdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func selectUsers(ctx context.Context, db *sql.DB) ([]User, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		var created string
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &created); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		if u.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("user %s created_at: %w", u.ID, err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func replaceUsers(ctx context.Context, tx *sql.Tx, users []User) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("deleting users: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing user insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range users {
		if u.ID == "" || u.Email == "" {
			return fmt.Errorf("user %q: %w", u.ID, ErrInvalidUser)
		}
		if _, err := stmt.ExecContext(ctx, u.ID, u.Email, u.PasswordHash, formatTime(u.CreatedAt)); err != nil {
			return fmt.Errorf("inserting user %s: %w", u.ID, err)
		}
	}
	return nil
}

func selectSessions(ctx context.Context, db *sql.DB) ([]Session, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT token, user_id, created_at, expires_at FROM sessions ORDER BY created_at, token")
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		var created, expires string
		if err := rows.Scan(&s.Token, &s.UserID, &created, &expires); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("session created_at: %w", err)
		}
		if s.ExpiresAt, err = parseTime(expires); err != nil {
			return nil, fmt.Errorf("session expires_at: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func replaceSessions(ctx context.Context, tx *sql.Tx, sessions []Session) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing session insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		if s.Token == "" || s.UserID == "" {
			return ErrInvalidSession
		}
		if _, err := stmt.ExecContext(ctx, s.Token, s.UserID, formatTime(s.CreatedAt), formatTime(s.ExpiresAt)); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
	}
	return nil
}
