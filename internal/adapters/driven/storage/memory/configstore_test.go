package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("fetch.origin", "letterboxd.com"))
	require.NoError(t, store.Set("fetch.origin", "example.org"))

	val, ok := store.Get("fetch.origin")
	assert.True(t, ok)
	assert.Equal(t, "example.org", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("s", "text")
	_ = store.Set("i", 3)
	_ = store.Set("i64", int64(4))
	_ = store.Set("f", 2.5)
	_ = store.Set("b", true)

	tests := []struct {
		key    string
		str    string
		n      int
		f      float64
		isNum  bool
		isTrue bool
	}{
		{key: "s", str: "text"},
		{key: "i", n: 3, f: 3, isNum: true},
		{key: "i64", n: 4, f: 4, isNum: true},
		{key: "f", n: 2, f: 2.5, isNum: true},
		{key: "b", isTrue: true},
		{key: "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.str, store.GetString(tt.key))
			assert.Equal(t, tt.n, store.GetInt(tt.key))
			assert.Equal(t, tt.isTrue, store.GetBool(tt.key))
			f, ok := store.GetFloat(tt.key)
			assert.Equal(t, tt.isNum, ok)
			assert.InDelta(t, tt.f, f, 1e-9)
		})
	}
}

func TestConfigStore_KeysAndDelete(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("sync.recent_max", 10)
	_ = store.Set("fetch.burst", 2)

	assert.Equal(t, []string{"fetch.burst", "sync.recent_max"}, store.Keys())

	require.NoError(t, store.Delete("fetch.burst"))
	require.NoError(t, store.Delete("fetch.burst"))
	assert.Equal(t, []string{"sync.recent_max"}, store.Keys())
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("k", n)
			_ = store.GetInt("k")
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("k")
	assert.True(t, ok)
}
