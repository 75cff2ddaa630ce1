package ytdlp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry(nil)
	j := newJob("a", "u", Options{})

	require.NoError(t, r.Put(j))
	assert.ErrorIs(t, r.Put(newJob("a", "u", Options{})), ErrDuplicateJob)

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, j, got)

	r.Remove("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
	r.Remove("a")
}

func TestRegistry_RemoveIfKeepsNewerJob(t *testing.T) {
	r := NewRegistry(nil)
	old := newJob("a", "u", Options{})
	require.NoError(t, r.Put(old))
	r.Remove("a")

	newer := newJob("a", "u", Options{})
	require.NoError(t, r.Put(newer))
	r.RemoveIf(old)

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, newer, got)

	r.RemoveIf(newer)
	assert.Zero(t, r.Len())
}

func TestRegistry_Cancel(t *testing.T) {
	var terminated []string
	r := NewRegistry(func(j *Job) bool {
		terminated = append(terminated, j.ID)
		return true
	})

	assert.False(t, r.Cancel("a"), "unknown id")
	assert.Empty(t, terminated)

	require.NoError(t, r.Put(newJob("a", "u", Options{})))
	assert.True(t, r.Cancel("a"))
	assert.False(t, r.Cancel("a"))
	assert.Equal(t, []string{"a"}, terminated)
	assert.Zero(t, r.Len())
}

func TestRegistry_CancelFinishedJob(t *testing.T) {
	r := NewRegistry(func(j *Job) bool { return !j.State().Terminal() })

	j := newJob("a", "u", Options{})
	j.finish(StateCompleted, "out.mkv", nil)
	require.NoError(t, r.Put(j))

	assert.False(t, r.Cancel("a"), "job completed before termination")
	assert.Zero(t, r.Len())
}

func TestRegistry_ConcurrentCancel(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	r := NewRegistry(func(*Job) bool {
		mu.Lock()
		calls++
		mu.Unlock()
		return true
	})
	require.NoError(t, r.Put(newJob("a", "u", Options{})))

	var wg sync.WaitGroup
	var wins sync.Map
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Cancel("a") {
				wins.Store(i, true)
			}
		}()
	}
	wg.Wait()

	won := 0
	wins.Range(func(_, _ any) bool { won++; return true })
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, calls)
}

func TestRegistry_IDs(t *testing.T) {
	r := NewRegistry(nil)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Put(newJob(id, "u", Options{})))
	}
	assert.Equal(t, []string{"a", "b", "c"}, r.IDs())
	assert.Equal(t, 3, r.Len())
}
