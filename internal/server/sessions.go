package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
)

// Session is one uploaded file and its planned run. Runs are never modified
// after they are stored.
type Session struct {
	Name    string
	Run     *dashboard.Run
	Created time.Time
}

// Sessions keeps planned runs in memory under random ids until their TTL
// passes, so filter changes re-render without another upload or model
// request.
type Sessions struct {
	c   *cache.Cache
	now func() time.Time
}

// NewSessions returns a store whose entries live for ttl after they are put.
func NewSessions(ttl time.Duration) *Sessions {
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Sessions{c: cache.New(ttl, cleanup), now: time.Now}
}

// Put stores run and returns its new id.
func (s *Sessions) Put(name string, run *dashboard.Run) string {
	id := uuid.NewString()
	s.c.Set(id, Session{Name: name, Run: run, Created: s.now()}, cache.DefaultExpiration)
	return id
}

// Get returns the live session for id. Malformed ids are never looked up.
func (s *Sessions) Get(id string) (Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return Session{}, false
	}
	v, ok := s.c.Get(id)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}

// Len counts stored sessions, including expired ones not yet cleaned up.
func (s *Sessions) Len() int { return s.c.ItemCount() }
