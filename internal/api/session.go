package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const (
	sessionCookie = "jagapohon_session"
	sessionTTL    = 12 * time.Hour
)

// sessions is an in-memory token set. All surveyors share one password, so
// a token carries no identity, only proof of login. Tokens die with the
// process, which is acceptable for a single-binary field tool.
type sessions struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

func newSessions() *sessions {
	return &sessions{tokens: make(map[string]time.Time)}
}

func (s *sessions) create() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Sweep expired tokens so abandoned sessions do not accumulate.
	now := time.Now()
	for t, expiry := range s.tokens {
		if now.After(expiry) {
			delete(s.tokens, t)
		}
	}

	s.tokens[token] = now.Add(sessionTTL)
	return token, nil
}

func (s *sessions) valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

func (s *sessions) revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// checkPassword compares the submitted password against the shared one in
// constant time. An empty configured password never matches.
func (s *Server) checkPassword(submitted string) bool {
	if s.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(s.password)) == 1
}

func (s *Server) isAuthenticated(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return s.sessions.valid(c.Value)
}

// requirePage redirects unauthenticated browsers to the login form.
func (s *Server) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.isAuthenticated(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// requireAPI rejects unauthenticated API calls with 401.
func (s *Server) requireAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.isAuthenticated(r) {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
