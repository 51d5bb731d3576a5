package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
	"github.com/cataloguebot/whatsapp-gate/internal/storage"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// runStoreContract exercises the behaviour every backend must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) storage.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("unseen identity gets defaults", func(t *testing.T) {
		store := newStore(t)

		s, err := store.GetOrCreate(ctx, "+15550001")
		require.NoError(t, err)
		assert.Equal(t, gate.NewSession("+15550001"), s)
		assert.False(t, s.IsPaused(t0))
	})

	t.Run("get or create is idempotent", func(t *testing.T) {
		store := newStore(t)

		first, err := store.GetOrCreate(ctx, "+15550002")
		require.NoError(t, err)
		second, err := store.GetOrCreate(ctx, "+15550002")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("save round trips every field", func(t *testing.T) {
		store := newStore(t)

		s, err := store.GetOrCreate(ctx, "+15550003")
		require.NoError(t, err)
		s = s.EnableSearch(t0).MuteFor(t0, 60, "1h").MarkWelcomeShown().MarkResumeSent(t0)
		require.NoError(t, store.Save(ctx, s))

		got, err := store.GetOrCreate(ctx, "+15550003")
		require.NoError(t, err)
		assert.Equal(t, s.Identity, got.Identity)
		assert.True(t, got.SearchEnabled)
		assert.True(t, got.HardPaused)
		assert.True(t, got.WelcomeShown)
		assert.True(t, got.ResumeSentOnce)
		assert.Equal(t, "1h", got.PausedMode)
		require.NotNil(t, got.MutedUntil)
		assert.True(t, t0.Add(time.Hour).Equal(*got.MutedUntil))
		require.NotNil(t, got.SearchEnabledAt)
		assert.True(t, t0.Equal(*got.SearchEnabledAt))
		assert.True(t, got.IsPaused(t0.Add(59*time.Minute)))
		assert.False(t, got.IsPaused(t0.Add(61*time.Minute)))
	})

	t.Run("save clears fields", func(t *testing.T) {
		store := newStore(t)

		s, err := store.GetOrCreate(ctx, "+15550004")
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, s.PausePending(t0).MarkWelcomeShown()))
		require.NoError(t, store.Save(ctx, s.PausePending(t0).Unmute()))

		got, err := store.GetOrCreate(ctx, "+15550004")
		require.NoError(t, err)
		assert.False(t, got.HardPaused)
		assert.False(t, got.WelcomeShown)
		assert.Empty(t, got.PausedMode)
		assert.Nil(t, got.PausedAt)
	})

	t.Run("last write wins", func(t *testing.T) {
		store := newStore(t)

		s, err := store.GetOrCreate(ctx, "+15550005")
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, s.MuteForever(t0)))
		require.NoError(t, store.Save(ctx, s.EnableSearch(t0)))

		got, err := store.GetOrCreate(ctx, "+15550005")
		require.NoError(t, err)
		assert.False(t, got.PauseForever)
		assert.True(t, got.SearchEnabled)
	})

	t.Run("identities are isolated", func(t *testing.T) {
		store := newStore(t)

		a, err := store.GetOrCreate(ctx, "+15550006")
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, a.MuteForever(t0)))

		b, err := store.GetOrCreate(ctx, "+15550007")
		require.NoError(t, err)
		assert.False(t, b.PauseForever)
	})

	t.Run("get never creates", func(t *testing.T) {
		store := newStore(t)
		reader, ok := store.(storage.SessionReader)
		require.True(t, ok, "store does not implement Get")

		_, err := reader.Get(ctx, "+15550009")
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = reader.Get(ctx, "+15550009")
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, store.Save(ctx, gate.NewSession("+15550009").MuteForever(t0)))
		got, err := reader.Get(ctx, "+15550009")
		require.NoError(t, err)
		assert.Equal(t, "+15550009", got.Identity)
		assert.True(t, got.PauseForever)
	})

	t.Run("concurrent first contact", func(t *testing.T) {
		store := newStore(t)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.GetOrCreate(ctx, "+15550008")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}
	})
}
