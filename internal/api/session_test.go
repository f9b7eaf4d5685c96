package api

import (
	"testing"
	"time"
)

func TestSessions_ExpiredTokenRejected(t *testing.T) {
	s := newSessions()
	s.tokens["stale"] = time.Now().Add(-time.Minute)

	if s.valid("stale") {
		t.Error("expired token should not validate")
	}
}

func TestSessions_CreateSweepsExpired(t *testing.T) {
	s := newSessions()
	s.tokens["stale1"] = time.Now().Add(-time.Hour)
	s.tokens["stale2"] = time.Now().Add(-time.Minute)
	s.tokens["live"] = time.Now().Add(time.Hour)

	token, err := s.create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	s.mu.Lock()
	_, stale1 := s.tokens["stale1"]
	_, stale2 := s.tokens["stale2"]
	_, live := s.tokens["live"]
	n := len(s.tokens)
	s.mu.Unlock()

	if stale1 || stale2 {
		t.Error("create should sweep expired tokens")
	}
	if !live {
		t.Error("create must not remove live tokens")
	}
	if n != 2 {
		t.Errorf("token count = %d, want 2 (live + new)", n)
	}
	if !s.valid(token) {
		t.Error("freshly created token should validate")
	}
}

func TestSessions_RevokeRemovesToken(t *testing.T) {
	s := newSessions()
	token, err := s.create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	s.revoke(token)
	if s.valid(token) {
		t.Error("revoked token should not validate")
	}
}
