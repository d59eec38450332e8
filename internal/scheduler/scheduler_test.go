package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flashpoint/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	runs     int64
	err      error
	panics   bool
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	atomic.AddInt64(&j.runs, 1)
	if j.panics {
		panic("boom")
	}
	return j.err
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop()).WithRetryPolicy(0, time.Millisecond)
}

// waitForHistory polls until the job has at least n recorded results.
func waitForHistory(t *testing.T, s *Scheduler, jobName string, n int) JobHistory {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		history, err := s.History(jobName)
		require.NoError(t, err)
		if len(history.Results) >= n {
			return history
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("job %s never recorded %d results", jobName, n)
	return JobHistory{}
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@every 1h"}))
	err := s.AddJob(&stubJob{name: "a", schedule: "@every 1h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.Equal(t, []string{"a"}, s.Jobs())
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob(&stubJob{name: "bad", schedule: "not a schedule"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule")
	assert.Empty(t, s.Jobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@every 1h"}))
	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.Jobs())

	err := s.RemoveJob("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunJobRecordsSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "ok", schedule: "@every 1h"}

	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("ok"))

	history := waitForHistory(t, s, "ok", 1)
	result := history.Results[0]
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.EqualValues(t, 1, atomic.LoadInt64(&job.runs))
}

func TestRunJobRetriesAndRecordsFailure(t *testing.T) {
	s := New(logger.NewNop()).WithRetryPolicy(2, time.Millisecond)
	job := &stubJob{name: "fails", schedule: "@every 1h", err: errors.New("no data")}

	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("fails"))

	history := waitForHistory(t, s, "fails", 1)
	result := history.Results[0]
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no data")

	// Initial attempt plus two retries.
	assert.EqualValues(t, 3, atomic.LoadInt64(&job.runs))
}

func TestRunJobSurvivesPanic(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "panics", schedule: "@every 1h", panics: true}

	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("panics"))

	history := waitForHistory(t, s, "panics", 1)
	result := history.Results[0]
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "job panicked")
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()

	err := s.RunJob("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = s.History("ghost")
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	s := newTestScheduler()
	ok := &stubJob{name: "ok", schedule: "@every 1h"}
	bad := &stubJob{name: "bad", schedule: "@every 1h", err: errors.New("down")}

	require.NoError(t, s.AddJob(ok))
	require.NoError(t, s.AddJob(bad))
	require.NoError(t, s.RunJob("ok"))
	require.NoError(t, s.RunJob("bad"))
	waitForHistory(t, s, "ok", 1)
	waitForHistory(t, s, "bad", 1)

	stats := s.Stats()
	require.Len(t, stats, 2)

	assert.Equal(t, 1, stats["ok"].TotalRuns)
	assert.Equal(t, 1, stats["ok"].SuccessCount)
	assert.InDelta(t, 1.0, stats["ok"].SuccessRate, 1e-9)
	assert.NotNil(t, stats["ok"].LastRun)
	assert.NotNil(t, stats["ok"].LastSuccess)
	assert.Nil(t, stats["ok"].LastFailure)

	assert.Equal(t, 1, stats["bad"].FailureCount)
	assert.NotNil(t, stats["bad"].LastFailure)
	assert.Nil(t, stats["bad"].LastSuccess)
}

func TestSchedulerRunsJobsOnSchedule(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "tick", schedule: "@every 1s"}

	require.NoError(t, s.AddJob(job))
	s.Start()
	defer s.Stop()

	waitForDeadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt64(&job.runs) == 0 && time.Now().Before(waitForDeadline) {
		time.Sleep(20 * time.Millisecond)
	}
	assert.Positive(t, atomic.LoadInt64(&job.runs))
}

func TestJobHistoryRing(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.add(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.Latest(5), 5)
	assert.Empty(t, h.Latest(0))
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.01)
	assert.Len(t, h.Failed(), maxHistory/2)
}

func TestJobHistoryEmpty(t *testing.T) {
	h := &JobHistory{}
	assert.Zero(t, h.SuccessRate())
	assert.Empty(t, h.Latest(3))
	assert.Empty(t, h.Failed())
}
