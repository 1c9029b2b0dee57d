package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualAdvance(t *testing.T) {
	m := NewManual()
	var a, b int
	cancelA := m.Every(time.Second, func() { a++ })
	m.Every(time.Second, func() { b++ })

	m.Advance(3)
	assert.Equal(t, 3, a)
	assert.Equal(t, 3, b)

	cancelA()
	cancelA()
	m.Advance(2)
	assert.Equal(t, 3, a)
	assert.Equal(t, 5, b)
	assert.Equal(t, 1, m.Active())
}

func TestManualCancelFromCallback(t *testing.T) {
	m := NewManual()
	var n int
	var cancel Cancel
	cancel = m.Every(time.Second, func() {
		n++
		if n == 2 {
			cancel()
		}
	})
	m.Advance(5)
	assert.Equal(t, 2, n)
	assert.Zero(t, m.Active())
}

func TestTickerStopsOnCancel(t *testing.T) {
	var n atomic.Int32
	done := make(chan struct{})
	ready := make(chan struct{})
	var cancel Cancel
	cancel = Ticker{}.Every(time.Millisecond, func() {
		<-ready
		if n.Add(1) == 3 {
			cancel()
			close(done)
		}
	})
	close(ready)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not fire")
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(3), n.Load())
}
