package task

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/gift-share-service/internal/app"
	"github.com/haierkeys/gift-share-service/internal/service"
	"github.com/haierkeys/gift-share-service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ShareSweepTask 定时删除某个分享类型中已过期的记录
type ShareSweepTask struct {
	engine   service.Engine
	interval time.Duration
	schedule cron.Schedule
	track    func() func()
	logger   *zap.Logger
}

// Name 返回任务名称
func (t *ShareSweepTask) Name() string {
	return "ShareSweep:" + t.engine.Artifact()
}

// LoopInterval 返回执行间隔
func (t *ShareSweepTask) LoopInterval() time.Duration {
	return t.interval
}

// Schedule 配置了 sweep-cron 时返回对应的调度
func (t *ShareSweepTask) Schedule() cron.Schedule {
	return t.schedule
}

// IsStartupRun 启动时先清理一次
func (t *ShareSweepTask) IsStartupRun() bool {
	return true
}

// Run 执行一轮清理
func (t *ShareSweepTask) Run(ctx context.Context) error {
	if t.track != nil {
		defer t.track()()
	}

	stats, err := t.engine.Sweep(ctx)
	if err != nil {
		return err
	}
	if stats.Skipped || stats.Scanned == 0 {
		return nil
	}
	t.logger.Info("task log",
		zap.String("task", t.Name()),
		zap.String(logger.FieldArtifact, t.engine.Artifact()),
		zap.Int("scanned", stats.Scanned),
		zap.Int("deleted", stats.Deleted),
		zap.Int("failed", stats.Failed))
	return nil
}

// NewShareSweepTask 为指定分享类型创建清理任务
func NewShareSweepTask(appContainer *app.App, artifact string) (Task, error) {
	var engine service.Engine
	for _, e := range appContainer.Engines() {
		if e.Artifact() == artifact {
			engine = e
		}
	}
	if engine == nil {
		return nil, fmt.Errorf("unknown artifact %q", artifact)
	}

	cfg := appContainer.Config()
	t := &ShareSweepTask{
		engine:   engine,
		interval: cfg.GetSweepInterval(),
		track:    appContainer.TrackOperation,
		logger:   appContainer.Logger(),
	}
	if cfg.Share.SweepCron != "" {
		sched, err := ParseCron(cfg.Share.SweepCron)
		if err != nil {
			return nil, fmt.Errorf("parse sweep-cron %q: %w", cfg.Share.SweepCron, err)
		}
		t.schedule = sched
	}
	return t, nil
}

func init() {
	for _, artifact := range []string{app.ArtifactGift, app.ArtifactLetter} {
		RegisterWithApp(func(appContainer *app.App) (Task, error) {
			return NewShareSweepTask(appContainer, artifact)
		})
	}
}
