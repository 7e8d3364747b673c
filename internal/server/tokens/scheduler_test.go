package tokens

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(tok string) timerKey { return timerKey{kind: models.TokenSession, token: tok} }

func TestScheduler_FiresOnce(t *testing.T) {
	s := newScheduler()
	var n atomic.Int32

	s.Schedule(key("a"), time.Millisecond, func() { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, s.Pending())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}

func TestScheduler_Cancel(t *testing.T) {
	s := newScheduler()
	var fired atomic.Bool

	s.Schedule(key("a"), 20*time.Millisecond, func() { fired.Store(true) })
	assert.Equal(t, 1, s.Pending())
	s.Cancel(key("a"))
	s.Cancel(key("missing"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_RescheduleReplaces(t *testing.T) {
	s := newScheduler()
	var first, second atomic.Bool

	s.Schedule(key("a"), 20*time.Millisecond, func() { first.Store(true) })
	s.Schedule(key("a"), time.Millisecond, func() { second.Store(true) })
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, second.Load, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, first.Load())
}

func TestScheduler_Close(t *testing.T) {
	s := newScheduler()
	var fired atomic.Bool

	s.Schedule(key("a"), 20*time.Millisecond, func() { fired.Store(true) })
	s.Schedule(key("b"), 20*time.Millisecond, func() { fired.Store(true) })
	s.Close()
	s.Schedule(key("c"), time.Millisecond, func() { fired.Store(true) })

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Equal(t, 0, s.Pending())
}
