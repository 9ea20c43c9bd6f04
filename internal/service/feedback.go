package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/privexbot/widget/internal/config"
	"github.com/privexbot/widget/internal/domain"
	"github.com/privexbot/widget/internal/storage"
)

// FeedbackStore records per-message ratings for the browsing session.
// Ratings are write-once; the in-memory map is the source of truth for the
// page lifetime and the backing store is mirrored best-effort.
type FeedbackStore struct {
	store storage.Store
	botID string

	mu      sync.Mutex
	ratings map[string]domain.Rating
}

func NewFeedbackStore(ctx context.Context, store storage.Store, botID string) *FeedbackStore {
	s := &FeedbackStore{
		store:   store,
		botID:   botID,
		ratings: make(map[string]domain.Rating),
	}
	s.load(ctx)
	return s
}

func (s *FeedbackStore) storageKey() string {
	return config.FeedbackKeyPrefix + s.botID
}

// Get returns the accepted rating for a message, if any.
func (s *FeedbackStore) Get(messageID string) (domain.Rating, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rating, ok := s.ratings[messageID]
	return rating, ok
}

// SetIfAbsent records a rating unless the message is already rated. Returns
// false when a rating was already accepted.
func (s *FeedbackStore) SetIfAbsent(ctx context.Context, messageID string, rating domain.Rating) bool {
	s.mu.Lock()
	if _, exists := s.ratings[messageID]; exists {
		s.mu.Unlock()
		return false
	}
	s.ratings[messageID] = rating
	s.mu.Unlock()

	s.persist(ctx)
	return true
}

// Revert removes a recorded rating so the choice can be re-offered after a
// failed submission.
func (s *FeedbackStore) Revert(ctx context.Context, messageID string) {
	s.mu.Lock()
	delete(s.ratings, messageID)
	s.mu.Unlock()

	s.persist(ctx)
}

func (s *FeedbackStore) load(ctx context.Context) {
	raw, err := s.store.Get(ctx, s.storageKey())
	if err != nil {
		if err != storage.ErrNotFound {
			slog.Debug("feedback store read failed", "error", err, "bot_id", s.botID)
		}
		return
	}

	var ratings map[string]domain.Rating
	if err := json.Unmarshal([]byte(raw), &ratings); err != nil {
		slog.Debug("feedback state corrupt, starting fresh", "error", err, "bot_id", s.botID)
		return
	}

	s.mu.Lock()
	s.ratings = ratings
	s.mu.Unlock()
}

func (s *FeedbackStore) persist(ctx context.Context) {
	s.mu.Lock()
	raw, err := json.Marshal(s.ratings)
	s.mu.Unlock()
	if err != nil {
		return
	}

	if err := s.store.Set(ctx, s.storageKey(), string(raw)); err != nil {
		slog.Debug("feedback store write failed", "error", err, "bot_id", s.botID)
	}
}
