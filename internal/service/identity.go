package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/privexbot/widget/internal/config"
	"github.com/privexbot/widget/internal/domain"
	"github.com/privexbot/widget/internal/storage"
)

// Identity owns the session identifier for one bot embed. Ids are read from
// the persistent store keyed by bot id, synthesized when absent, and replaced
// when the backend issues a continuity id. Persistence is best-effort
// throughout: a broken store never fails the caller.
type Identity struct {
	store storage.Store
	botID string
	host  domain.HostInfo

	mu        sync.Mutex
	current   string
	createdAt time.Time
}

func NewIdentity(store storage.Store, botID string, host domain.HostInfo) *Identity {
	return &Identity{store: store, botID: botID, host: host}
}

func (s *Identity) storageKey() string {
	return config.SessionKeyPrefix + s.botID
}

// GetOrCreate returns the stable session id, reading the persistent store
// first and minting a new id on miss or storage failure.
func (s *Identity) GetOrCreate(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" {
		return s.current
	}

	if stored, err := s.store.Get(ctx, s.storageKey()); err == nil && stored != "" {
		s.current = stored
		s.createdAt = time.Now()
		return s.current
	} else if err != nil && err != storage.ErrNotFound {
		slog.Debug("session store read failed", "error", err, "bot_id", s.botID)
	}

	s.current = s.generate()
	s.createdAt = time.Now()
	s.persist(ctx)
	return s.current
}

// Reset discards the current id and mints a fresh one.
func (s *Identity) Reset(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.generate()
	s.createdAt = time.Now()
	s.persist(ctx)
	return s.current
}

// Adopt replaces the local id with a server-issued continuity id.
func (s *Identity) Adopt(ctx context.Context, serverID string) {
	if serverID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if serverID == s.current {
		return
	}
	s.current = serverID
	s.persist(ctx)
}

// Current returns the id without touching storage. Empty until the first
// GetOrCreate.
func (s *Identity) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Session returns a snapshot of the current session.
func (s *Identity) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Session{ID: s.current, CreatedAt: s.createdAt}
}

func (s *Identity) persist(ctx context.Context) {
	if err := s.store.Set(ctx, s.storageKey(), s.current); err != nil {
		slog.Debug("session store write failed", "error", err, "bot_id", s.botID)
	}
}

func (s *Identity) generate() string {
	return fmt.Sprintf("%s_%d_%s_%s",
		config.SessionIDPrefix,
		time.Now().UnixMilli(),
		randomToken(9),
		deviceHash(s.host),
	)
}

// randomToken returns n base-36-ish characters sourced from a UUID.
func randomToken(n int) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(token) {
		n = len(token)
	}
	return token[:n]
}

// deviceHash derives a short, stable, non-identifying fragment from screen
// dimensions and timezone offset. It lowers the collision probability of
// same-millisecond ids across devices without fingerprinting the visitor.
func deviceHash(host domain.HostInfo) string {
	if host.ScreenWidth <= 0 && host.ScreenHeight <= 0 {
		// Hashing inputs unavailable (headless embed); identity
		// generation must still never fail.
		return randomToken(6)
	}

	input := fmt.Sprintf("%dx%d_%d", host.ScreenWidth, host.ScreenHeight, host.TimezoneOffsetMinutes)

	var h uint32
	for _, c := range input {
		h = h*31 + uint32(c)
	}
	return strconv.FormatUint(uint64(h), 36)
}
