package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

var at = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var got []string
	require.NoError(t, bus.Subscribe(shared.EventPointsChanged, func(e shared.Event) error {
		got = append(got, "points:"+e.AggregateID())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		got = append(got, "all:"+string(e.EventType()))
		return errors.New("ignored")
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		panic("boom")
	}))

	require.NoError(t, bus.Publish(shared.NewPointsChangedEvent("s1", 0, 10, "goal", at)))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("s1", 1, 2, "Novice", at)))

	assert.Equal(t, []string{
		"points:s1",
		"all:" + string(shared.EventPointsChanged),
		"all:" + string(shared.EventLevelUp),
	}, got)

	snap := bus.Metrics().Snapshot()
	assert.EqualValues(t, 4, snap.HandlerExecutions)
	assert.EqualValues(t, 3, snap.HandlerFailures)
	assert.EqualValues(t, 1, snap.Published[shared.EventLevelUp])

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(shared.NewPointsChangedEvent("s1", 10, 20, "goal", at)), ErrEventBusClosed)
}

func TestInMemoryEventBus_Async(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var (
		mu    sync.Mutex
		count int
	)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewPointsChangedEvent("s1", i, i+1, "goal", at)))
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 10
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Close())
}

// loopback is a PubSub shared by several buses, like one Redis channel.
type loopback struct {
	mu   sync.Mutex
	subs []chan []byte
}

func (l *loopback) Publish(_ context.Context, _ string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.subs {
		s <- payload
	}
	return nil
}

func (l *loopback) Subscribe(ctx context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte, 16)
	out := make(chan []byte)
	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-ch:
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func TestRedisEventBus_FansOutToOtherInstances(t *testing.T) {
	transport := &loopback{}
	a, err := NewRedisEventBus(RedisEventBusConfig{Transport: transport, InstanceID: "a"})
	require.NoError(t, err)
	b, err := NewRedisEventBus(RedisEventBusConfig{Transport: transport, InstanceID: "b"})
	require.NoError(t, err)

	localA := make(chan shared.Event, 4)
	remoteB := make(chan shared.Event, 4)
	require.NoError(t, a.SubscribeAll(func(e shared.Event) error { localA <- e; return nil }))
	require.NoError(t, b.SubscribeAll(func(e shared.Event) error { remoteB <- e; return nil }))

	require.NoError(t, a.Publish(shared.NewPointsChangedEvent("s1", 0, 10, "goal", at)))

	select {
	case e := <-remoteB:
		assert.Equal(t, shared.EventPointsChanged, e.EventType())
		assert.Equal(t, "s1", e.AggregateID())
		assert.True(t, IsRemote(e))
	case <-time.After(time.Second):
		t.Fatal("remote instance did not receive the event")
	}

	e := <-localA
	assert.False(t, IsRemote(e))
	select {
	case <-localA:
		t.Fatal("publisher must not receive its own broadcast twice")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}
