package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vesting-console/internal/models"
	"github.com/vesting-console/internal/recipients"
)

const (
	defaultComposeIdleTTL = 30 * time.Minute
	maxComposeSessions    = 256
)

// composeSession is one recipient list being edited in a panel
type composeSession struct {
	id        string
	composer  *recipients.Composer
	createdAt time.Time
	lastUsed  time.Time
}

// composeView is the JSON shape of a compose session
type composeView struct {
	ID        string             `json:"id"`
	Entries   []models.Recipient `json:"entries"`
	Selected  []string           `json:"selected"`
	CreatedAt time.Time          `json:"createdAt"`
}

func (c *composeSession) view() composeView {
	return composeView{
		ID:        c.id,
		Entries:   c.composer.Entries(),
		Selected:  c.composer.SelectedIDs(),
		CreatedAt: c.createdAt,
	}
}

// composeSessions holds the open compose sessions. A session idle for longer
// than ttl is dropped, and past limit sessions the least recently used one is
// evicted to make room.
type composeSessions struct {
	mu       sync.Mutex
	sessions map[string]*composeSession
	ttl      time.Duration
	limit    int
	now      func() time.Time
}

func newComposeSessions(ttl time.Duration, limit int) *composeSessions {
	if ttl <= 0 {
		ttl = defaultComposeIdleTTL
	}
	if limit <= 0 {
		limit = maxComposeSessions
	}
	return &composeSessions{
		sessions: make(map[string]*composeSession),
		ttl:      ttl,
		limit:    limit,
		now:      time.Now,
	}
}

func (c *composeSessions) create() *composeSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC()
	c.sweep(now)
	if len(c.sessions) >= c.limit {
		c.evictOldest()
	}

	session := &composeSession{
		id:        uuid.New().String(),
		composer:  recipients.NewComposer(),
		createdAt: now,
		lastUsed:  now,
	}
	c.sessions[session.id] = session
	return session
}

// get returns a live session and marks it used
func (c *composeSessions) get(id string) (*composeSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[id]
	if !ok {
		return nil, false
	}
	now := c.now().UTC()
	if c.expired(session, now) {
		delete(c.sessions, id)
		return nil, false
	}
	session.lastUsed = now
	return session, true
}

func (c *composeSessions) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return false
	}
	delete(c.sessions, id)
	return true
}

func (c *composeSessions) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *composeSessions) expired(session *composeSession, now time.Time) bool {
	return now.Sub(session.lastUsed) > c.ttl
}

// sweep drops expired sessions. Caller holds mu.
func (c *composeSessions) sweep(now time.Time) {
	for id, session := range c.sessions {
		if c.expired(session, now) {
			delete(c.sessions, id)
		}
	}
}

// evictOldest drops the least recently used session. Caller holds mu.
func (c *composeSessions) evictOldest() {
	var oldest *composeSession
	for _, session := range c.sessions {
		if oldest == nil || session.lastUsed.Before(oldest.lastUsed) {
			oldest = session
		}
	}
	if oldest != nil {
		delete(c.sessions, oldest.id)
	}
}
