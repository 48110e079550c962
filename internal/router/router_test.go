package router

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	name      string
	priority  int
	available bool
	probes    int32
}

func (f *fakeAdapter) Name() string     { return f.name }
func (f *fakeAdapter) Priority() int    { return f.priority }
func (f *fakeAdapter) IsAvailable(ctx context.Context) bool {
	atomic.AddInt32(&f.probes, 1)
	return f.available
}

func TestRouter_OrdersByPriorityDescending(t *testing.T) {
	low := &fakeAdapter{name: "nimbus", priority: 75, available: true}
	high := &fakeAdapter{name: "edelweiss", priority: 95, available: true}
	mid := &fakeAdapter{name: "skylark", priority: 85, available: true}

	r := New([]Adapter{low, high, mid}, time.Minute)
	sources := r.GetSources(context.Background())

	require.Len(t, sources, 3)
	assert.Equal(t, "edelweiss", sources[0].Name())
	assert.Equal(t, "skylark", sources[1].Name())
	assert.Equal(t, "nimbus", sources[2].Name())
}

func TestRouter_FiltersUnhealthyAdapters(t *testing.T) {
	healthy := &fakeAdapter{name: "edelweiss", priority: 95, available: true}
	unhealthy := &fakeAdapter{name: "skylark", priority: 85, available: false}

	r := New([]Adapter{healthy, unhealthy}, time.Minute)
	sources := r.GetSources(context.Background())

	require.Len(t, sources, 1)
	assert.Equal(t, "edelweiss", sources[0].Name())
}

func TestRouter_CachesHealthUntilReprobeInterval(t *testing.T) {
	a := &fakeAdapter{name: "edelweiss", priority: 95, available: true}
	r := New([]Adapter{a}, time.Hour)

	r.GetSources(context.Background())
	r.GetSources(context.Background())
	r.GetSources(context.Background())

	assert.Equal(t, int32(1), atomic.LoadInt32(&a.probes))
}

func TestRouter_ReprobesAfterIntervalElapses(t *testing.T) {
	a := &fakeAdapter{name: "edelweiss", priority: 95, available: true}
	r := New([]Adapter{a}, time.Millisecond)

	r.GetSources(context.Background())
	time.Sleep(5 * time.Millisecond)
	r.GetSources(context.Background())

	assert.GreaterOrEqual(t, atomic.LoadInt32(&a.probes), int32(2))
}

func TestRouter_MarkUnhealthyDemotesImmediately(t *testing.T) {
	a := &fakeAdapter{name: "edelweiss", priority: 95, available: true}
	r := New([]Adapter{a}, time.Hour)

	require.Len(t, r.GetSources(context.Background()), 1)

	r.MarkUnhealthy("edelweiss")
	assert.Empty(t, r.GetSources(context.Background()))
}

func TestRouter_UnknownAdapterIsListedAfterSuccessfulFirstProbe(t *testing.T) {
	probed := make(chan struct{})
	a := &blockingAdapter{name: "edelweiss", priority: 95, release: probed}
	r := New([]Adapter{a}, time.Hour)
	close(probed)

	sources := r.GetSources(context.Background())
	require.Len(t, sources, 1)
}

type blockingAdapter struct {
	name     string
	priority int
	release  chan struct{}
}

func (b *blockingAdapter) Name() string  { return b.name }
func (b *blockingAdapter) Priority() int { return b.priority }
func (b *blockingAdapter) IsAvailable(ctx context.Context) bool {
	<-b.release
	return true
}
