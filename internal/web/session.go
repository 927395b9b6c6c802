package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionCookie = "session_id"

// Session is a signed-in user.
type Session struct {
	ID        string
	UserID    uint
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager keeps sessions in memory. Sessions do not survive a restart.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

// NewSessionManager creates an empty store. A non-positive ttl means 24 hours.
func NewSessionManager(ttl time.Duration, secure bool) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		secure:   secure,
		now:      time.Now,
	}
}

// Create starts a session for a user.
func (sm *SessionManager) Create(userID uint, username string) *Session {
	now := sm.now()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
	}

	sm.mu.Lock()
	sm.sessions[s.ID] = s
	sm.mu.Unlock()
	return s
}

// Get returns a live session.
func (sm *SessionManager) Get(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s, ok := sm.sessions[id]
	if !ok || sm.now().After(s.ExpiresAt) {
		return nil, false
	}
	return s, true
}

func (sm *SessionManager) Delete(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

// Cleanup drops expired sessions and returns how many were removed.
func (sm *SessionManager) Cleanup() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	removed := 0
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is cancelled.
func (sm *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.Cleanup()
		}
	}
}

// FromRequest returns the session named by the request cookie.
func (sm *SessionManager) FromRequest(c *gin.Context) (*Session, bool) {
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		return nil, false
	}
	return sm.Get(id)
}

func (sm *SessionManager) SetCookie(c *gin.Context, s *Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, s.ID, int(sm.ttl.Seconds()), "/", "", sm.secure, true)
}

func (sm *SessionManager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", sm.secure, true)
}
