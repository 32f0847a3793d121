package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/haierkeys/gift-share-service/internal/dao"
	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/internal/service"
	"github.com/haierkeys/gift-share-service/pkg/locker"
	"github.com/haierkeys/gift-share-service/pkg/storage"
	"github.com/haierkeys/gift-share-service/pkg/tracer"
	"github.com/haierkeys/gift-share-service/pkg/workerpool"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 分享类型与数据表名
const (
	ArtifactGift   = "gift"
	ArtifactLetter = "letter"
)

// MetricsNamespace prometheus 指标前缀
const MetricsNamespace = "gift_share"

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 首次使用时迁移表结构，每个表只执行一次
	Migrator *dao.SchemaMigrator

	workerPool   *workerpool.Pool
	metrics      *service.Metrics
	locker       *locker.RedisLocker
	tracerCloser io.Closer

	// Repository 层
	AccountRepo domain.AccountRepository

	// Service 层
	GiftService   service.ShareService[domain.GiftPayload]
	LetterService service.ShareService[domain.LetterPayload]

	// StartTime 容器创建时间，用于计算运行时长
	StartTime time.Time

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewApp 创建应用容器实例
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	if cfg.Tracer.JaegerAgent != "" {
		_, closer, err := tracer.NewJaegerTracer(cfg.Tracer.ServiceName, cfg.Tracer.JaegerAgent)
		if err != nil {
			logger.Warn("jaeger tracer init failed", zap.Error(err))
		} else {
			a.tracerCloser = closer
		}
	}

	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	dbConfig := cfg.GetDatabaseConfig()
	a.Dao = dao.New(db, dao.WithConfig(&dbConfig), dao.WithLogger(logger))
	a.Migrator = dao.NewSchemaMigrator(db, logger)

	a.metrics = service.NewMetrics(MetricsNamespace)

	deleter, err := storage.NewDeleter(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("init media deleter: %w", err)
	}
	if deleter == nil {
		logger.Warn("media deletion disabled, blobs of deleted shares are kept")
	}
	blobs := service.NewBlobDeletionClient(deleter, cfg.Storage.PublicBaseURL, a.workerPool, a.metrics, logger)

	// 配置了 redis 时，多实例之间用锁避免重复清理
	var sweepLocker service.SweepLocker
	if cfg.Redis.Addr != "" {
		l, err := locker.NewRedisLocker(&cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, sweep runs without cross-process lock",
				zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.locker = l
			sweepLocker = l
		}
	}

	a.AccountRepo = dao.NewAccountRepository(a.Dao, a.Migrator)
	policies := service.NewRetentionPolicyResolver(a.AccountRepo, cfg.GetRetentionConfig(), logger)

	a.GiftService = service.NewShareService(cfg.GetShareConfig(ArtifactGift), service.Dependencies[domain.GiftPayload]{
		Repo:     dao.NewShareRecordRepository[domain.GiftPayload](a.Dao, a.Migrator, ArtifactGift),
		Policies: policies,
		Blobs:    blobs,
		Pool:     a.workerPool,
		Locker:   sweepLocker,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	a.LetterService = service.NewShareService(cfg.GetShareConfig(ArtifactLetter), service.Dependencies[domain.LetterPayload]{
		Repo:     dao.NewShareRecordRepository[domain.LetterPayload](a.Dao, a.Migrator, ArtifactLetter),
		Policies: policies,
		Blobs:    blobs,
		Pool:     a.workerPool,
		Locker:   sweepLocker,
		Metrics:  a.metrics,
		Logger:   logger,
	})

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.String("storage", cfg.Storage.Type),
		zap.Bool("sweepLock", sweepLocker != nil))

	return a, nil
}

// Engines 返回所有分享类型的引擎
func (a *App) Engines() []service.Engine {
	return []service.Engine{a.GiftService, a.LetterService}
}

// EnsureSchema 为账户表和所有分享表执行迁移
func (a *App) EnsureSchema(ctx context.Context) error {
	if err := a.Migrator.Ensure(ctx, dao.AccountTableSpec(a.Dao.TableName("account"))); err != nil {
		return fmt.Errorf("migrate account: %w", err)
	}
	for _, e := range a.Engines() {
		if err := e.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("migrate %s: %w", e.Artifact(), err)
		}
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Metrics 获取 prometheus 指标
func (a *App) Metrics() *service.Metrics {
	return a.metrics
}

// WorkerPool 获取 Worker Pool
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// IsProductionMode 是否为生产模式
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// Close 释放数据库连接
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：延迟删除 -> Worker Pool -> 后台操作 -> redis / tracer -> Database
// ctx 为 nil 时使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	select {
	case <-a.shutdownCh:
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 0. 立即执行所有等待宽限期的删除，删除任务进入 Worker Pool
	for _, e := range a.Engines() {
		if e == nil {
			continue
		}
		if err := e.Shutdown(ctx); err != nil {
			a.logger.Warn("share engine shutdown error", zap.String("artifact", e.Artifact()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s engine shutdown: %w", e.Artifact(), err))
		}
	}

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 2. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 3. 外部连接
	if a.locker != nil {
		if err := a.locker.Close(); err != nil {
			a.logger.Warn("redis close error", zap.Error(err))
		}
	}
	if a.tracerCloser != nil {
		if err := a.tracerCloser.Close(); err != nil {
			a.logger.Warn("tracer close error", zap.Error(err))
		}
	}

	// 4. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}
