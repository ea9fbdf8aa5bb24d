// Package session persists the bearer token and the serialized user between
// runs, the way the browser build kept them in local storage under fixed
// keys. Backing store is a small sqlite file so concurrent CLI invocations
// do not corrupt each other.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Store is the persisted session.
type Store struct {
	db *sql.DB
}

// Open creates or opens the session database at path. ":memory:" is
// supported for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS session (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists the token and user under their fixed keys.
func (s *Store) Save(token string, user chat.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin session save: %w", err)
	}
	defer tx.Rollback()

	upsert := `INSERT INTO session (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, keyToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if _, err := tx.Exec(upsert, keyUser, string(userJSON)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return tx.Commit()
}

// Load returns the persisted token and user. ok is false when no session is
// stored or the stored user cannot be parsed (the broken session is cleared,
// matching the browser behavior on a corrupt local-storage entry).
func (s *Store) Load() (token string, user chat.User, ok bool, err error) {
	if err = s.get(keyToken, &token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", chat.User{}, false, nil
		}
		return "", chat.User{}, false, err
	}

	var userJSON string
	if err = s.get(keyUser, &userJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", chat.User{}, false, nil
		}
		return "", chat.User{}, false, err
	}

	if err = json.Unmarshal([]byte(userJSON), &user); err != nil {
		_ = s.Clear()
		return "", chat.User{}, false, nil
	}
	return token, user, true, nil
}

// Clear removes both keys. Idempotent.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE key IN (?, ?)`, keyToken, keyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) get(key string, out *string) error {
	return s.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(out)
}

// TokenExpired inspects the token's exp claim without verifying the
// signature; the client holds no signing secret. Tokens without an exp claim
// are treated as live and left for the backend to judge.
func TokenExpired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
