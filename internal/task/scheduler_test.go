package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/gift-share-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	startup  bool
	panics   bool
	schedule cron.Schedule
}

func (t *countingTask) Name() string                { return "counting" }
func (t *countingTask) LoopInterval() time.Duration { return t.interval }
func (t *countingTask) IsStartupRun() bool          { return t.startup }
func (t *countingTask) Schedule() cron.Schedule     { return t.schedule }

func (t *countingTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	if t.panics {
		panic("boom")
	}
	return nil
}

func TestScheduler_LoopAndStop(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{interval: 10 * time.Millisecond, startup: true}
	s.AddTask(task)
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())

	stopped := task.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, task.runs.Load())
}

func TestScheduler_StartupOnlyTask(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{startup: true}
	s.AddTask(task)
	s.Start()

	// a task without interval returns after its startup run
	require.NoError(t, sc.WaitClosed())
	assert.Equal(t, int32(1), task.runs.Load())
}

func TestScheduler_PanicDoesNotKillLoop(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{interval: 5 * time.Millisecond, panics: true}
	s.AddTask(task)
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}

func TestNextWait_CronOverridesInterval(t *testing.T) {
	sched, err := ParseCron("0 3 * * *")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 1, 30, 0, 0, time.Local)
	task := &countingTask{interval: time.Minute, schedule: sched}
	assert.Equal(t, 90*time.Minute, nextWait(task, now))

	task.schedule = nil
	assert.Equal(t, time.Minute, nextWait(task, now))
}

func TestParseCron_Invalid(t *testing.T) {
	_, err := ParseCron("every tuesday")
	assert.Error(t, err)

	_, err = ParseCron("@hourly")
	assert.NoError(t, err)
}
