package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store keeps sessions in memory, keyed by a random uuid
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
	log      zerolog.Logger
}

// NewStore creates an empty session store
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
		log:      log.With().Str("component", "session_store").Logger(),
	}
}

// Get returns the session with id and marks it active
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()

	if ok {
		sess.Touch(st.now())
	}
	return sess, ok
}

// GetOrCreate returns the session with id, or a new session under a fresh id
// when id is unknown or not a uuid.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := st.Get(id); ok {
			return sess, false
		}
	}

	sess := newSession(uuid.NewString(), st.now())

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	st.log.Debug().Str("session_id", sess.ID).Msg("Session created")
	return sess, true
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions that have been idle for longer than ttl and returns how
// many were removed. Sessions waiting on a prediction are kept.
func (st *Store) Sweep(ttl time.Duration) int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if sess.expired(now, ttl) {
			delete(st.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		st.log.Info().Int("removed", removed).Int("remaining", len(st.sessions)).Msg("Swept idle sessions")
	}
	return removed
}
