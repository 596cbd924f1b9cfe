package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/seqdash/internal/model"
)

const (
	sessionCookie = "seqdash_session"
	sessionTTL    = 12 * time.Hour
)

// Report is the last successful run of a session.
type Report struct {
	Result   model.BatchResult
	CSV      string
	Filename string
}

// Notice is a one-shot message shown on the next page render.
type Notice struct {
	Level    string // "error", "warning" or "success"
	Text     string
	Failures []string
}

// Session is the per-browser state. It lives in memory only.
type Session struct {
	ID       string
	Report   *Report
	Notice   *Notice
	Model    model.Kind
	Options  model.Options
	lastSeen time.Time
}

// Store keeps sessions keyed by cookie value.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}, now: time.Now}
}

// Get returns the request's session, creating one (and setting the cookie)
// when the request has none or an unknown one.
func (s *Store) Get(w http.ResponseWriter, r *http.Request) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions[c.Value]; ok {
			sess.lastSeen = now
			return sess
		}
	}

	s.prune(now)
	sess := &Session{
		ID:       uuid.NewString(),
		Model:    model.Nativeness,
		Options:  model.DefaultOptions(),
		lastSeen: now,
	}
	s.sessions[sess.ID] = sess
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Update runs fn with the store locked so handlers never race on a session.
func (s *Store) Update(sess *Session, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(sess)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) prune(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > sessionTTL {
			delete(s.sessions, id)
		}
	}
}
