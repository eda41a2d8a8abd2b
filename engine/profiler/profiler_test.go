package profiler

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestProfiler(options ...ProfilerBuilderOption) (*Profiler, *fakeClock, *bytes.Buffer) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var out bytes.Buffer
	opts := append([]ProfilerBuilderOption{
		WithClock(clock.now),
		WithLogger(log.New(&out, "", 0)),
	}, options...)
	return NewProfiler(opts...), clock, &out
}

func TestTick_reportsOncePerInterval(t *testing.T) {
	p, clock, out := newTestProfiler()

	for i := 0; i < 59; i++ {
		clock.advance(16 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock.advance(100 * time.Millisecond)
	require.True(t, p.Tick())
	assert.Equal(t, "[Profiler] 60 fps\n", out.String())

	// the counter restarts after a report
	out.Reset()
	clock.advance(time.Second)
	require.True(t, p.Tick())
	assert.Equal(t, "[Profiler] 1 fps\n", out.String())
}

func TestTick_memoryStats(t *testing.T) {
	p, clock, out := newTestProfiler(WithMemoryStats(true), WithUpdateInterval(500*time.Millisecond))

	clock.advance(500 * time.Millisecond)
	require.True(t, p.Tick())
	line := out.String()
	assert.True(t, strings.HasPrefix(line, "[Profiler] 1 fps | Heap: "), line)
	assert.Contains(t, line, "GC: ")
}

func TestSummary(t *testing.T) {
	p, clock, _ := newTestProfiler()

	for i := 0; i < 120; i++ {
		clock.advance(25 * time.Millisecond)
		p.Tick()
	}
	s := p.Summary()
	assert.Equal(t, 120, s.Frames)
	assert.Equal(t, 3*time.Second, s.Elapsed)
	assert.InDelta(t, 40.0, s.AverageFPS, 1e-9)
	assert.InDelta(t, 40.0, s.LastFPS, 1e-9)

	p.Reset()
	s = p.Summary()
	assert.Zero(t, s.Frames)
	assert.Zero(t, s.AverageFPS)
}
