package service

import (
	"context"
	"testing"

	"github.com/privexbot/widget/internal/domain"
	"github.com/privexbot/widget/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackStore_WriteOnce(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(storage.StoreTypeMemory)
	require.NoError(t, err)

	feedback := NewFeedbackStore(ctx, store, "bot-1")

	require.True(t, feedback.SetIfAbsent(ctx, "m1", domain.RatingPositive))
	assert.False(t, feedback.SetIfAbsent(ctx, "m1", domain.RatingNegative))

	rating, ok := feedback.Get("m1")
	require.True(t, ok)
	assert.Equal(t, domain.RatingPositive, rating)
}

func TestFeedbackStore_Revert(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(storage.StoreTypeMemory)
	require.NoError(t, err)

	feedback := NewFeedbackStore(ctx, store, "bot-1")

	require.True(t, feedback.SetIfAbsent(ctx, "m1", domain.RatingPositive))
	feedback.Revert(ctx, "m1")

	_, ok := feedback.Get("m1")
	assert.False(t, ok)
	assert.True(t, feedback.SetIfAbsent(ctx, "m1", domain.RatingNegative))
}

func TestFeedbackStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(storage.StoreTypeMemory)
	require.NoError(t, err)

	first := NewFeedbackStore(ctx, store, "bot-1")
	require.True(t, first.SetIfAbsent(ctx, "m1", domain.RatingNegative))

	second := NewFeedbackStore(ctx, store, "bot-1")
	rating, ok := second.Get("m1")
	require.True(t, ok)
	assert.Equal(t, domain.RatingNegative, rating)

	// Different bot ids do not share feedback state.
	other := NewFeedbackStore(ctx, store, "bot-2")
	_, ok = other.Get("m1")
	assert.False(t, ok)
}

func TestFeedbackStore_CorruptStateStartsFresh(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(storage.StoreTypeMemory)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "privexbot_feedback_bot-1", "{not json"))

	feedback := NewFeedbackStore(ctx, store, "bot-1")
	_, ok := feedback.Get("m1")
	assert.False(t, ok)
	assert.True(t, feedback.SetIfAbsent(ctx, "m1", domain.RatingPositive))
}
