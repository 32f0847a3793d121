package task

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/gift-share-service/internal/service"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeEngine struct {
	service.Engine
	stats  service.SweepStats
	err    error
	sweeps int
}

func (e *fakeEngine) Artifact() string { return "gift" }

func (e *fakeEngine) Sweep(ctx context.Context) (service.SweepStats, error) {
	e.sweeps++
	return e.stats, e.err
}

func TestShareSweepTask_Run(t *testing.T) {
	engine := &fakeEngine{stats: service.SweepStats{Scanned: 2, Deleted: 2}}
	tracked := 0
	task := &ShareSweepTask{
		engine: engine,
		track: func() func() {
			tracked++
			return func() { tracked-- }
		},
		logger: zap.NewNop(),
	}

	assert.Equal(t, "ShareSweep:gift", task.Name())
	assert.True(t, task.IsStartupRun())
	assert.Nil(t, task.Schedule())
	assert.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, engine.sweeps)
	assert.Equal(t, 0, tracked)

	engine.err = errors.New("select failed")
	assert.Error(t, task.Run(context.Background()))
}
