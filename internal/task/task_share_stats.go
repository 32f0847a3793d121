package task

import (
	"context"
	"time"

	"github.com/haierkeys/gift-share-service/internal/app"

	"go.uber.org/zap"
)

// ShareStatsTask 定期记录存活分享数量与 Worker Pool 状态
type ShareStatsTask struct {
	app    *app.App
	logger *zap.Logger
}

func (t *ShareStatsTask) Name() string {
	return "ShareStats"
}

func (t *ShareStatsTask) LoopInterval() time.Duration {
	return 10 * time.Minute
}

func (t *ShareStatsTask) IsStartupRun() bool {
	return false
}

func (t *ShareStatsTask) Run(ctx context.Context) error {
	fields := make([]zap.Field, 0, 8)
	for _, e := range t.app.Engines() {
		n, err := e.CountLive(ctx)
		if err != nil {
			return err
		}
		fields = append(fields,
			zap.Int64(e.Artifact()+"Live", n),
			zap.Int(e.Artifact()+"PendingDeletions", e.PendingDeletions()))
	}

	pm := t.app.WorkerPool().GetMetrics()
	fields = append(fields,
		zap.Int64("poolActive", pm.ActiveCount),
		zap.Int("poolQueued", pm.QueuedCount),
		zap.Int64("poolCompleted", pm.Completed),
		zap.Int64("poolFailed", pm.Failed))

	t.logger.Info("share stats", fields...)
	return nil
}

// NewShareStatsTask 创建统计任务
func NewShareStatsTask(appContainer *app.App) (Task, error) {
	return &ShareStatsTask{app: appContainer, logger: appContainer.Logger()}, nil
}

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		return NewShareStatsTask(appContainer)
	})
}
