package relay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session pairs one accepted relay connection with the variant currently
// feeding it.
type Session struct {
	ID         string    `json:"id"`
	ClientAddr string    `json:"client_addr"`
	UserAgent  string    `json:"user_agent"`
	Variant    string    `json:"variant"`
	StartedAt  time.Time `json:"started_at"`

	bytesSent int64 // atomic
	lastWrite int64 // atomic unix nano
}

// AddBytes records n payload bytes delivered to this session.
func (s *Session) AddBytes(n int) {
	atomic.AddInt64(&s.bytesSent, int64(n))
	atomic.StoreInt64(&s.lastWrite, time.Now().UnixNano())
}

// BytesSent returns the payload bytes delivered so far.
func (s *Session) BytesSent() int64 {
	return atomic.LoadInt64(&s.bytesSent)
}

// LastActivity returns the time of the most recent write, or the session
// start when nothing was written yet.
func (s *Session) LastActivity() time.Time {
	val := atomic.LoadInt64(&s.lastWrite)
	if val == 0 {
		return s.StartedAt
	}
	return time.Unix(0, val)
}

// Registry tracks the sessions a relay server is currently feeding. The
// relay itself serves one session at a time; the registry is still safe for
// concurrent readers (status endpoints).
type Registry struct {
	sessions sync.Map // map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(clientAddr, userAgent, variant string) *Session {
	session := &Session{
		ID:         uuid.New().String(),
		ClientAddr: clientAddr,
		UserAgent:  userAgent,
		Variant:    variant,
		StartedAt:  time.Now(),
	}
	r.sessions.Store(session.ID, session)
	return session
}

func (r *Registry) Unregister(id string) {
	r.sessions.Delete(id)
}

func (r *Registry) List() []*Session {
	var list []*Session
	r.sessions.Range(func(_, value any) bool {
		list = append(list, value.(*Session))
		return true
	})
	return list
}

// SessionInfo is the JSON-safe view of a session for status endpoints.
type SessionInfo struct {
	ID           string    `json:"id"`
	ClientAddr   string    `json:"client_addr"`
	UserAgent    string    `json:"user_agent"`
	Variant      string    `json:"variant"`
	StartedAt    time.Time `json:"started_at"`
	BytesSent    int64     `json:"bytes_sent"`
	LastActivity time.Time `json:"last_activity"`
}

// Snapshot renders the current sessions for serialization.
func (r *Registry) Snapshot() []SessionInfo {
	sessions := r.List()
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{
			ID:           s.ID,
			ClientAddr:   s.ClientAddr,
			UserAgent:    s.UserAgent,
			Variant:      s.Variant,
			StartedAt:    s.StartedAt,
			BytesSent:    s.BytesSent(),
			LastActivity: s.LastActivity(),
		})
	}
	return out
}
