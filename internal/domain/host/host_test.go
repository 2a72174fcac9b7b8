package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
)

func TestNewChannelEntanglesPorts(t *testing.T) {
	h := New(DefaultConfig())

	a, b := h.NewChannel()
	assert.NotEqual(t, a.Handle(), b.Handle())
	assert.NotZero(t, a.Handle())

	peer, err := h.Peer(a.Handle())
	require.NoError(t, err)
	assert.Equal(t, b.Handle(), peer)
	assert.Equal(t, a.Handle(), a.External().Handle())
}

func TestPostAndReceiveFIFO(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()

	require.NoError(t, h.Post(a.Handle(), []byte("one")))
	require.NoError(t, h.Post(a.Handle(), []byte("two")))

	data, ok, err := h.Receive(b.Handle())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "one", string(data))

	data, ok, err = h.Receive(b.Handle())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", string(data))

	_, ok, err = h.Receive(b.Handle())
	require.NoError(t, err)
	assert.False(t, ok)

	// Nothing was posted towards a
	_, ok, _ = h.Receive(a.Handle())
	assert.False(t, ok)
}

func TestPostQueueFull(t *testing.T) {
	h := New(Config{MaxQueueDepth: 2})
	a, _ := h.NewChannel()

	require.NoError(t, h.Post(a.Handle(), []byte("1")))
	require.NoError(t, h.Post(a.Handle(), []byte("2")))
	assert.ErrorIs(t, h.Post(a.Handle(), []byte("3")), ErrQueueFull)
}

func TestUnknownHandle(t *testing.T) {
	h := New(DefaultConfig())

	assert.ErrorIs(t, h.Post(42, nil), ErrUnknownHandle)
	_, _, err := h.Receive(42)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.ErrorIs(t, h.Close(42), ErrUnknownHandle)
	assert.False(t, h.IsOpen(42))
}

func TestCloseNotifiesListenersForBothEnds(t *testing.T) {
	h := New(DefaultConfig())

	var (
		mu     sync.Mutex
		closed []port.Handle
	)
	h.OnClose(func(ext port.External) {
		mu.Lock()
		closed = append(closed, ext.Handle())
		mu.Unlock()
	})

	a, b := h.NewChannel()
	require.NoError(t, h.Close(a.Handle()))

	assert.ElementsMatch(t, []port.Handle{a.Handle(), b.Handle()}, closed)
	assert.False(t, h.IsOpen(a.Handle()))
	assert.False(t, h.IsOpen(b.Handle()))
	assert.Equal(t, 0, h.Stats().Ports)
}

func TestCloseListenersRunBeforeHandleReuse(t *testing.T) {
	h := New(DefaultConfig())
	a, _ := h.NewChannel()

	h.OnClose(func(ext port.External) {
		// The handle must not be handed out while listeners run
		c, d := h.NewChannel()
		assert.NotEqual(t, ext.Handle(), c.Handle())
		assert.NotEqual(t, ext.Handle(), d.Handle())
	})
	require.NoError(t, h.Close(a.Handle()))
}

func TestHandlesAreReused(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()
	require.NoError(t, h.Close(a.Handle()))

	c, d := h.NewChannel()
	assert.ElementsMatch(t,
		[]port.Handle{a.Handle(), b.Handle()},
		[]port.Handle{c.Handle(), d.Handle()},
	)
	assert.Equal(t, 0, h.Stats().FreeHandles)
}

func TestPostAfterClose(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()

	h.OnClose(func(ext port.External) {
		assert.ErrorIs(t, h.Post(ext.Handle(), []byte("late")), ErrPortClosed)
	})
	require.NoError(t, h.Close(b.Handle()))
	assert.ErrorIs(t, h.Post(a.Handle(), []byte("late")), ErrUnknownHandle)
}

func TestWait(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = h.Post(a.Handle(), []byte("wake"))
	}()
	require.NoError(t, h.Wait(ctx, b.Handle()))

	data, ok, err := h.Receive(b.Handle())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "wake", string(data))
}

func TestWaitReturnsOnClose(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()

	errs := make(chan error, 1)
	go func() {
		errs <- h.Wait(context.Background(), b.Handle())
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, h.Close(a.Handle()))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrPortClosed)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after close")
	}
}

func TestWaitContextCancelled(t *testing.T) {
	h := New(DefaultConfig())
	_, b := h.NewChannel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, h.Wait(ctx, b.Handle()), context.DeadlineExceeded)
}

func TestStats(t *testing.T) {
	h := New(DefaultConfig())
	a, _ := h.NewChannel()
	h.NewChannel()
	require.NoError(t, h.Post(a.Handle(), []byte("x")))

	stats := h.Stats()
	assert.Equal(t, 4, stats.Ports)
	assert.Equal(t, 1, stats.Queued)
}

func TestPostFuncReceivesPeerHandle(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()

	var seen port.Handle
	err := h.PostFunc(a.Handle(), func(peer port.Handle) ([]byte, error) {
		seen = peer
		return []byte("encoded"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, b.Handle(), seen)
}

func TestPostFuncEncodeErrorQueuesNothing(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()

	boom := errors.New("encode failed")
	err := h.PostFunc(a.Handle(), func(port.Handle) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok, err := h.Receive(b.Handle())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReceiveFuncConsumesOnDecodeError(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()
	require.NoError(t, h.Post(a.Handle(), []byte("bad")))

	boom := errors.New("decode failed")
	ok, err := h.ReceiveFunc(b.Handle(), func([]byte) error { return boom })
	assert.True(t, ok)
	assert.ErrorIs(t, err, boom)

	_, ok, err = h.Receive(b.Handle())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCloseWaitsForInFlightEncode(t *testing.T) {
	h := New(DefaultConfig())
	a, b := h.NewChannel()

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}
	h.OnClose(func(ext port.External) {
		if ext.Handle() == b.Handle() {
			record("closed")
		}
	})

	encoding := make(chan struct{})
	release := make(chan struct{})
	posted := make(chan error, 1)
	go func() {
		posted <- h.PostFunc(a.Handle(), func(port.Handle) ([]byte, error) {
			close(encoding)
			<-release
			record("encoded")
			return []byte("x"), nil
		})
	}()

	<-encoding
	closed := make(chan error, 1)
	go func() { closed <- h.Close(b.Handle()) }()

	time.Sleep(10 * time.Millisecond)
	close(release)

	require.NoError(t, <-posted)
	require.NoError(t, <-closed)
	assert.Equal(t, []string{"encoded", "closed"}, events)
}
