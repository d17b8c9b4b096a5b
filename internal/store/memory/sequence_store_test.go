package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceStoreNext(t *testing.T) {
	ctx := context.Background()
	store := NewSequenceStore()

	n, err := store.Next(ctx, "25-26", "INV")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = store.Next(ctx, "25-26", "INV")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestSequenceStorePartitionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewSequenceStore()

	for i := 0; i < 3; i++ {
		_, err := store.Next(ctx, "25-26", "INV")
		require.NoError(t, err)
	}

	n, err := store.Next(ctx, "26-27", "INV")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = store.Next(ctx, "25-26", "MNT")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestSequenceStoreConcurrentNext(t *testing.T) {
	const workers = 50

	ctx := context.Background()
	store := NewSequenceStore()

	var (
		mu     sync.Mutex
		issued = make(map[int64]bool, workers)
		wg     sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Next(ctx, "25-26", "INV")
			require.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			require.False(t, issued[n], "number %d issued twice", n)
			issued[n] = true
		}()
	}
	wg.Wait()

	// Exactly 1..workers with no gaps or duplicates.
	require.Len(t, issued, workers)
	for i := int64(1); i <= workers; i++ {
		require.True(t, issued[i], "number %d never issued", i)
	}
}
