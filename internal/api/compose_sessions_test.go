package api

import (
	"testing"
	"time"
)

func TestComposeSessions_IdleSessionExpires(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := newComposeSessions(10*time.Minute, 0)
	sessions.now = func() time.Time { return clock }

	idle := sessions.create()
	busy := sessions.create()

	clock = clock.Add(6 * time.Minute)
	if _, ok := sessions.get(busy.id); !ok {
		t.Fatal("expected busy session to be live")
	}

	clock = clock.Add(6 * time.Minute)
	if _, ok := sessions.get(idle.id); ok {
		t.Error("expected idle session to expire")
	}
	if _, ok := sessions.get(busy.id); !ok {
		t.Error("a get must extend the session")
	}
	if got := sessions.count(); got != 1 {
		t.Errorf("expected 1 open session, got %d", got)
	}
}

func TestComposeSessions_CreateSweepsExpired(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := newComposeSessions(time.Minute, 0)
	sessions.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		sessions.create()
	}
	clock = clock.Add(2 * time.Minute)
	sessions.create()

	if got := sessions.count(); got != 1 {
		t.Errorf("expected expired sessions to be swept, got %d open", got)
	}
}

func TestComposeSessions_LimitEvictsLeastRecentlyUsed(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := newComposeSessions(time.Hour, 2)
	sessions.now = func() time.Time { return clock }

	first := sessions.create()
	clock = clock.Add(time.Second)
	second := sessions.create()
	clock = clock.Add(time.Second)
	sessions.get(first.id)
	clock = clock.Add(time.Second)
	third := sessions.create()

	if _, ok := sessions.get(second.id); ok {
		t.Error("expected the least recently used session to be evicted")
	}
	for _, s := range []*composeSession{first, third} {
		if _, ok := sessions.get(s.id); !ok {
			t.Errorf("expected session %s to stay", s.id)
		}
	}
}

func TestComposeSessions_Defaults(t *testing.T) {
	sessions := newComposeSessions(0, 0)
	if sessions.ttl != defaultComposeIdleTTL || sessions.limit != maxComposeSessions {
		t.Errorf("unexpected defaults: ttl %v, limit %d", sessions.ttl, sessions.limit)
	}
}
