package task

import (
	"github.com/haierkeys/gift-share-service/internal/app"
	"github.com/haierkeys/gift-share-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器，负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	app       *app.App
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(appContainer *app.App, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		scheduler: NewScheduler(appContainer.Logger(), sc),
		app:       appContainer,
		logger:    appContainer.Logger(),
	}
}

// RegisterTasks 通过注册表创建并添加所有任务
// 单个任务创建失败只记录日志，不影响其他任务
func (m *Manager) RegisterTasks() error {
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			continue
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
		m.logger.Info("task registered",
			zap.String("name", t.Name()),
			zap.Duration("interval", t.LoopInterval()))
	}
	return nil
}

// Tasks 已注册的任务
func (m *Manager) Tasks() []Task {
	return m.scheduler.Tasks()
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
