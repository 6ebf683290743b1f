package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"bank-advisor-be/pkg/advisor/session"
)

// SessionRepository keeps advisor dialogue state in process memory with a
// sliding TTL. Implements session.Store.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(state *session.State) {
	r.cache.Set(state.ID, state, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*session.State, bool) {
	if x, found := r.cache.Get(sessionID); found {
		// Saving refreshes the TTL, so an active conversation never expires
		// mid-flow.
		return x.(*session.State), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
