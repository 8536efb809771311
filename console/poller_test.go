package console

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerStopBeforeFirstTick(t *testing.T) {
	clock := newFakeClock()
	p := NewPoller(clock)

	var calls int32

	p.Start(30*time.Second, func() {
		atomic.AddInt32(&calls, 1)
	})
	p.Stop()

	//A tick landing after stop must not invoke the action
	clock.lastTicker().tick()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, p.Running())
}

func TestPollerTicksInvokeAction(t *testing.T) {
	clock := newFakeClock()
	p := NewPoller(clock)

	fired := make(chan struct{}, 10)

	p.Start(30*time.Second, func() {
		fired <- struct{}{}
	})
	defer p.Stop()

	clock.lastTicker().tick()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("action never fired")
	}

	clock.lastTicker().tick()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("action did not fire on second tick")
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	p := NewPoller(clock)

	p.Start(30*time.Second, func() {})

	p.Stop()
	p.Stop()
	p.Stop()

	assert.False(t, p.Running())
}

func TestPollerStopWithoutStart(t *testing.T) {
	p := NewPoller(newFakeClock())

	p.Stop()

	assert.False(t, p.Running())
}

func TestPollerRestartReplacesTicker(t *testing.T) {
	clock := newFakeClock()
	p := NewPoller(clock)

	fired := make(chan struct{}, 10)

	p.Start(30*time.Second, func() {
		fired <- struct{}{}
	})

	first := clock.lastTicker()

	p.Start(10*time.Second, func() {
		fired <- struct{}{}
	})
	defer p.Stop()

	second := clock.lastTicker()
	require.NotSame(t, first, second)

	first.mu.Lock()
	stopped := first.stopped
	first.mu.Unlock()
	assert.True(t, stopped, "previous ticker must be stopped on restart")

	second.tick()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("restarted poller never fired")
	}
}
