package payroll

import (
	"sync"
	"time"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
)

type sessionKey struct {
	companyID string
	userID    string
	category  payroll.SalaryCategory
	period    string
}

func newSessionKey(p payroll.Principal, category payroll.SalaryCategory, period payroll.Period) sessionKey {
	return sessionKey{
		companyID: p.CompanyID,
		userID:    p.UserID,
		category:  category,
		period:    period.String(),
	}
}

type sessionEntry struct {
	session  *PeriodSession
	lastUsed time.Time
}

// sessionRegistry keeps each operator's open periods between requests.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[sessionKey]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *sessionRegistry) get(key sessionKey) (*PeriodSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[key]
	if !ok {
		return nil, false
	}
	if r.expired(entry) {
		delete(r.sessions, key)
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.session, true
}

func (r *sessionRegistry) put(key sessionKey, s *PeriodSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpired()
	r.sessions[key] = &sessionEntry{session: s, lastUsed: r.now()}
}

func (r *sessionRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// sweep drops expired sessions and reports how many were removed and how many remain.
func (r *sessionRegistry) sweep() (evicted, open int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.sessions)
	r.evictExpired()
	return before - len(r.sessions), len(r.sessions)
}

// evictExpired must be called with mu held.
func (r *sessionRegistry) evictExpired() {
	for key, entry := range r.sessions {
		if r.expired(entry) {
			delete(r.sessions, key)
		}
	}
}

func (r *sessionRegistry) expired(entry *sessionEntry) bool {
	return r.ttl > 0 && r.now().Sub(entry.lastUsed) > r.ttl
}
