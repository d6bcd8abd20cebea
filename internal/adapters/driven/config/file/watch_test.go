package file

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Watch_ReloadsOnWrite(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	var changes atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func() { changes.Add(1) })
	}()

	// The watcher may not be registered yet, so keep writing until it reacts.
	content := []byte("[scheduler]\nenabled = false\n")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(store.Path(), content, 0600)
		return changes.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	_, ok := store.Get("scheduler.enabled")
	assert.True(t, ok)
	assert.False(t, store.GetBool("scheduler.enabled"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestConfigStore_Watch_IgnoresOtherFiles(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	go func() {
		_ = store.Watch(ctx, func() { changes.Add(1) })
	}()

	other := store.Path() + ".bak"
	for range 5 {
		require.NoError(t, os.WriteFile(other, []byte("x = 1\n"), 0600))
		time.Sleep(20 * time.Millisecond)
	}
	assert.Zero(t, changes.Load())
}
