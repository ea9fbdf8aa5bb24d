package session

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	user := chat.User{ID: "u1", Email: "teacher@school.edu", FullName: "Test Teacher", Role: "teacher"}
	if err := s.Save("tok-1", user); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// the session survives a reopen of the same file
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	token, got, ok, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored session")
	}
	if token != "tok-1" || got != user {
		t.Fatalf("roundtrip mismatch: token=%q user=%+v", token, got)
	}
}

func TestSaveOverwritesPriorSession(t *testing.T) {
	s := openStore(t)

	if err := s.Save("tok-1", chat.User{ID: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("tok-2", chat.User{ID: "u2"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	token, user, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if token != "tok-2" || user.ID != "u2" {
		t.Fatalf("expected the newer session, got token=%q user=%+v", token, user)
	}
}

func TestLoadWithoutSession(t *testing.T) {
	s := openStore(t)

	_, _, ok, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected no session")
	}
}

func TestClearRemovesSession(t *testing.T) {
	s := openStore(t)

	if err := s.Save("tok-1", chat.User{ID: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}

	_, _, ok, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("session survived clear")
	}
}

func TestCorruptUserEntryClearsSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Save("tok-1", chat.User{ID: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// corrupt the stored user behind the store's back
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	if _, err := db.Exec(`UPDATE session SET value = 'not json' WHERE key = 'user'`); err != nil {
		t.Fatalf("corrupt user row: %v", err)
	}
	db.Close()

	_, _, ok, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("corrupt session should not load")
	}

	// the broken entries were dropped, not just skipped
	_, _, ok, err = s.Load()
	if err != nil || ok {
		t.Fatalf("expected cleared session: ok=%v err=%v", ok, err)
	}
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestTokenExpired(t *testing.T) {
	expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	if !TokenExpired(expired) {
		t.Fatal("token with a past exp should be expired")
	}

	live := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	if TokenExpired(live) {
		t.Fatal("token with a future exp should not be expired")
	}

	noExp := signedToken(t, jwt.MapClaims{"sub": "u1"})
	if TokenExpired(noExp) {
		t.Fatal("token without an exp claim is left for the backend to judge")
	}

	if TokenExpired("not-a-jwt") {
		t.Fatal("garbage tokens are not treated as expired")
	}
}
