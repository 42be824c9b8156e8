package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

var (
	// ErrExpired is returned for unknown or timed out sessions.
	ErrExpired = errors.New("wizard session expired")
	// ErrNotOwner is returned when someone else drives a session.
	ErrNotOwner = errors.New("wizard session belongs to another member")
)

// Default registry limits.
const (
	DefaultTTL         = 15 * time.Minute
	DefaultMaxSessions = 512
)

// Session is one user's wizard.
type Session struct {
	GuildID string
	OwnerID string

	mu    sync.Mutex
	state State
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update runs fn on the current state and stores its result unless fn
// fails. Calls on one session are serialized.
func (s *Session) Update(fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.state.Clone())
	if err != nil {
		return s.state.Clone(), err
	}
	s.state = next
	return next.Clone(), nil
}

// Registry holds the open sessions. Entries expire after the ttl since their
// last use; the least recently used entry is evicted when full.
type Registry struct {
	cache *expirable.LRU[string, *Session]
	newID func() string
}

// NewRegistry creates a registry with room for maxSessions sessions.
func NewRegistry(maxSessions int, ttl time.Duration) *Registry {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	onEvict := func(id string, s *Session) {
		log.ApplicationLogger().Debug("Wizard session closed", "session", id, "guild_id", s.GuildID, "user_id", s.OwnerID)
	}
	return &Registry{
		cache: expirable.NewLRU[string, *Session](maxSessions, onEvict, ttl),
		newID: uuid.NewString,
	}
}

// Open starts a session for ownerID on button of embedName.
func (r *Registry) Open(guildID, ownerID, embedName string, button embeds.Button) (*Session, error) {
	id := r.newID()
	state, err := Open(id, embedName, button)
	if err != nil {
		return nil, err
	}
	s := &Session{GuildID: guildID, OwnerID: ownerID, state: state}
	r.cache.Add(id, s)
	return s, nil
}

// Lookup returns session id for userID and refreshes its expiry.
func (r *Registry) Lookup(id, userID string) (*Session, error) {
	s, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrExpired
	}
	if s.OwnerID != userID {
		return nil, ErrNotOwner
	}
	r.cache.Add(id, s)
	return s, nil
}

// Close ends session id.
func (r *Registry) Close(id string) {
	r.cache.Remove(id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Purge drops every session.
func (r *Registry) Purge() {
	r.cache.Purge()
}
