package repository

import (
	"context"
	"testing"
	"time"

	"github.com/neven/neven/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOTPStore_SetGetDelete(t *testing.T) {
	store := NewMemoryOTPStore()
	ctx := context.Background()
	now := time.Now()

	entry, err := store.Get(ctx, "+911111111111")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, store.Set(ctx, models.OTPEntry{Phone: "+911111111111", CodeHash: "h1", ExpiresAt: now.Add(time.Minute)}, time.Minute))

	entry, err = store.Get(ctx, "+911111111111")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "h1", entry.CodeHash)

	removed, err := store.Delete(ctx, "+911111111111")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, "+911111111111")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryOTPStore_SetResetsAttempts(t *testing.T) {
	store := NewMemoryOTPStore()
	ctx := context.Background()
	expires := time.Now().Add(time.Minute)

	require.NoError(t, store.Set(ctx, models.OTPEntry{Phone: "p", CodeHash: "h1", ExpiresAt: expires}, time.Minute))
	attempts, err := store.IncrementAttempts(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	attempts, err = store.IncrementAttempts(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	require.NoError(t, store.Set(ctx, models.OTPEntry{Phone: "p", CodeHash: "h2", Attempts: 9, ExpiresAt: expires}, time.Minute))
	entry, err := store.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "h2", entry.CodeHash)
	assert.Equal(t, 0, entry.Attempts)
}

func TestMemoryOTPStore_IncrementMissing(t *testing.T) {
	store := NewMemoryOTPStore()

	attempts, err := store.IncrementAttempts(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, attempts)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryOTPStore_Sweep(t *testing.T) {
	store := NewMemoryOTPStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Set(ctx, models.OTPEntry{Phone: "old", ExpiresAt: now.Add(-time.Second)}, time.Minute))
	require.NoError(t, store.Set(ctx, models.OTPEntry{Phone: "live", ExpiresAt: now.Add(time.Minute)}, time.Minute))

	assert.Equal(t, 1, store.Sweep(now))
	assert.Equal(t, 1, store.Len())

	entry, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestMemoryOTPStore_RunSweeperStopsOnCancel(t *testing.T) {
	store := NewMemoryOTPStore()
	require.NoError(t, store.Set(context.Background(), models.OTPEntry{Phone: "old", ExpiresAt: time.Now().Add(-time.Minute)}, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
