package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/pkg/circuitbreaker"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type breaker struct {
	state  circuitbreaker.State
	counts circuitbreaker.Counts
}

func (b breaker) State() circuitbreaker.State   { return b.state }
func (b breaker) Counts() circuitbreaker.Counts { return b.counts }

func TestCompositeHealthChecker(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name    string
		setup   func(h *CompositeHealthChecker)
		state   State
		healthy bool
		failing []string
	}{
		{
			name:    "no checks",
			setup:   func(*CompositeHealthChecker) {},
			state:   StateOK,
			healthy: true,
		},
		{
			name: "all pass",
			setup: func(h *CompositeHealthChecker) {
				h.AddCheck("store", PingCheck(pinger{}))
				h.AddOptionalCheck("redis", PingCheck(pinger{}))
			},
			state:   StateOK,
			healthy: true,
		},
		{
			name: "optional failure degrades",
			setup: func(h *CompositeHealthChecker) {
				h.AddCheck("store", PingCheck(pinger{}))
				h.AddOptionalCheck("redis", PingCheck(pinger{err: down}))
			},
			state:   StateDegraded,
			healthy: true,
			failing: []string{"redis"},
		},
		{
			name: "critical failure is down",
			setup: func(h *CompositeHealthChecker) {
				h.AddCheck("store", PingCheck(pinger{err: down}))
				h.AddOptionalCheck("redis", PingCheck(pinger{err: down}))
			},
			state:   StateDown,
			healthy: false,
			failing: []string{"redis", "store"},
		},
		{
			name: "open circuit",
			setup: func(h *CompositeHealthChecker) {
				h.AddCheck("store_circuit", BreakerCheck(breaker{state: circuitbreaker.StateOpen}))
			},
			state:   StateDown,
			healthy: false,
			failing: []string{"store_circuit"},
		},
		{
			name: "panicking check",
			setup: func(h *CompositeHealthChecker) {
				h.AddCheck("broken", func(context.Context) error { panic("boom") })
			},
			state:   StateDown,
			healthy: false,
			failing: []string{"broken"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCompositeHealthChecker("1.2.3")
			tt.setup(h)

			st := h.Check(context.Background())
			assert.Equal(t, tt.state, st.State)
			assert.Equal(t, tt.healthy, st.Healthy)
			assert.Equal(t, tt.failing, st.Failing)
			assert.Equal(t, "1.2.3", st.Version)
		})
	}
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	h := NewCompositeHealthChecker("")
	h.SetTimeout(10 * time.Millisecond)
	h.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	st := h.Check(context.Background())
	assert.Equal(t, StateDown, st.State)
	assert.Contains(t, st.Checks["slow"].Message, "deadline exceeded")
}

func TestBreakerCheck(t *testing.T) {
	assert.NoError(t, BreakerCheck(breaker{state: circuitbreaker.StateClosed})(context.Background()))

	err := BreakerCheck(breaker{
		state:  circuitbreaker.StateOpen,
		counts: circuitbreaker.Counts{Requests: 12, TotalFailures: 6},
	})(context.Background())
	require.Error(t, err)
	assert.Equal(t, "circuit is open (6 of 12 requests failed)", err.Error())
}
