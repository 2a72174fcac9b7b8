package port

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapperParkAndTake(t *testing.T) {
	w := NewWrapper(Pointer(0x1))

	first := w.Park("a")
	second := w.Park("b")
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, w.Pending())

	value, ok := w.Take(second)
	require.True(t, ok)
	assert.Equal(t, "b", value)

	_, ok = w.Take(second)
	assert.False(t, ok, "a reference can only be taken once")
	assert.Equal(t, []RefID{first}, w.PendingIDs())
}

func TestWrapperDrain(t *testing.T) {
	w := NewWrapper(Pointer(0x1))
	w.Park(1)
	w.Park(2)
	w.Park(3)

	assert.Equal(t, []any{1, 2, 3}, w.Drain())
	assert.Equal(t, 0, w.Pending())
	assert.Empty(t, w.Drain())

	// Ids keep increasing after a drain
	id := w.Park(4)
	assert.Equal(t, RefID(4), id)
}

func TestWrapperConcurrentPark(t *testing.T) {
	w := NewWrapper(Pointer(0x1))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[RefID]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := w.Park(i)
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, 50)
	assert.Equal(t, 50, w.Pending())
}

func TestWrapperInfo(t *testing.T) {
	w := NewWrapper(Pointer(0x2a))
	w.Park("x")

	info := w.Info()
	assert.Equal(t, Handle(0x2a), info.Handle)
	assert.Equal(t, 1, info.Pending)
	assert.Equal(t, w.CreatedAt(), info.CreatedAt)
}
