package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/pkg/timeutil"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	panic bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("boom")
	}
	return j.err
}

func TestDailySchedule_Next(t *testing.T) {
	s, err := ParseDaily("03:00")
	require.NoError(t, err)

	loc := time.FixedZone("IST", 5*3600+1800)
	before := time.Date(2024, 11, 20, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 11, 20, 3, 0, 0, 0, loc), s.Next(before))

	at := time.Date(2024, 11, 20, 3, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 11, 21, 3, 0, 0, 0, loc), s.Next(at))
	assert.Equal(t, "@daily 03:00", s.String())

	_, err = ParseDaily("3am")
	assert.Error(t, err)
}

func TestScheduler_Register(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(Config{})
	failing := &countingJob{name: "failing", err: errors.New("nope")}
	panicky := &countingJob{name: "panicky", panic: true}
	require.NoError(t, s.Register(failing, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(panicky, NewIntervalSchedule(time.Hour)))

	var seen []JobResult
	s.OnResult(func(r JobResult) { seen = append(seen, r) })

	res, err := s.RunNow(context.Background(), "failing")
	assert.EqualError(t, err, "nope")
	assert.False(t, res.Success())
	assert.True(t, res.Manual)

	_, err = s.RunNow(context.Background(), "panicky")
	assert.ErrorContains(t, err, "panicked")

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	require.Len(t, seen, 2)
	for _, info := range s.Jobs() {
		assert.EqualValues(t, 1, info.Runs, info.Name)
		assert.EqualValues(t, 1, info.Failures, info.Name)
	}
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	clock := timeutil.NewFixedClock(time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC))
	s := New(Config{Clock: clock, Tick: 5 * time.Millisecond})
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, job.runs.Load(), "not due yet")

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
	assert.EqualValues(t, 1, job.runs.Load(), "next run is a minute later")
}
