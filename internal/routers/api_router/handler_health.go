package api_router

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/haierkeys/gift-share-service/internal/app"
	"github.com/haierkeys/gift-share-service/internal/dto"
	pkgapp "github.com/haierkeys/gift-share-service/pkg/app"
	"github.com/haierkeys/gift-share-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查数据库连接，并返回各分享类型的存量与进程资源占用
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthResponse}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	res := dto.HealthResponse{
		Status:    "healthy",
		Version:   app.VersionInfo().Version,
		Uptime:    time.Since(h.App.StartTime).Seconds(),
		Database:  "connected",
		Artifacts: make(map[string]dto.ArtifactHealth),
	}

	// 检查数据库连接
	if err := h.App.DB.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		h.logError(ctx, "HealthHandler.Check", err)
		res.Status = "unhealthy"
		res.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorStoreUnavailable.WithData(res))
		return
	}

	for _, e := range h.App.Engines() {
		live, err := e.CountLive(ctx)
		if err != nil {
			h.App.Logger().Warn("count live shares failed", zap.String("artifact", e.Artifact()), zap.Error(err))
			live = -1
		}
		res.Artifacts[e.Artifact()] = dto.ArtifactHealth{
			Live:             live,
			PendingDeletions: e.PendingDeletions(),
		}
	}

	res.Process = h.process(ctx)

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}

// process 进程与 worker pool 状态，采集失败的字段保持零值
func (h *HealthHandler) process(ctx context.Context) *dto.ProcessHealth {
	ph := &dto.ProcessHealth{Goroutines: runtime.NumGoroutine()}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			ph.RSSBytes = mi.RSS
		}
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			ph.CPUPercent = pct
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		ph.HostMemUsed = vm.UsedPercent
	}

	if pool := h.App.WorkerPool(); pool != nil {
		m := pool.GetMetrics()
		ph.WorkerActive = m.ActiveCount
		ph.WorkerQueued = m.QueuedCount
		ph.WorkerFailed = m.Failed
	}
	return ph
}
