package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/haierkeys/gift-share-service/pkg/logger"
	"github.com/haierkeys/gift-share-service/pkg/storage"
	"github.com/haierkeys/gift-share-service/pkg/workerpool"

	"go.uber.org/zap"
)

// ErrBlobURLNotManaged the URL does not belong to the media service
var ErrBlobURLNotManaged = errors.New("blob url is not managed by the media service")

// BlobDeletionClient best-effort removal of media objects referenced by shares
// Failures are logged and never returned to the share lifecycle.
// BlobDeletionClient 尽力删除分享引用的媒体对象，失败只记录日志
type BlobDeletionClient interface {
	// Delete dispatches the deletion to the worker pool and returns immediately
	// Delete 异步删除
	Delete(ctx context.Context, blobURL string)
	// DeleteNow deletes synchronously, still swallowing errors
	// DeleteNow 同步删除
	DeleteNow(ctx context.Context, blobURL string)
}

type blobDeletionClient struct {
	deleter storage.Deleter
	baseURL *url.URL
	pool    *workerpool.Pool
	metrics *Metrics
	logger  *zap.Logger
}

// NewBlobDeletionClient creates a client
// deleter nil or an empty publicBaseURL disables media deletion.
// NewBlobDeletionClient deleter 为 nil 或 publicBaseURL 为空时不删除媒体
func NewBlobDeletionClient(deleter storage.Deleter, publicBaseURL string, pool *workerpool.Pool, metrics *Metrics, lg *zap.Logger) BlobDeletionClient {
	if lg == nil {
		lg = zap.NewNop()
	}
	c := &blobDeletionClient{deleter: deleter, pool: pool, metrics: metrics, logger: lg}
	if deleter == nil {
		return c
	}

	u, err := url.Parse(publicBaseURL)
	switch {
	case publicBaseURL == "":
		lg.Warn("media public base url not set, media deletion disabled")
		c.deleter = nil
	case err != nil || u.Host == "":
		lg.Warn("invalid media public base url, media deletion disabled", zap.String("url", publicBaseURL), zap.Error(err))
		c.deleter = nil
	default:
		c.baseURL = u
	}
	return c
}

// ObjectPath derives the service-relative object path of a blob URL
// ObjectPath 从媒体 URL 推导出相对媒体服务的对象路径，base 为空时不认领任何 URL
func ObjectPath(blobURL string, base *url.URL) (string, error) {
	if base == nil || base.Host == "" {
		return "", ErrBlobURLNotManaged
	}
	u, err := url.Parse(strings.TrimSpace(blobURL))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrBlobURLNotManaged
	}
	if !strings.EqualFold(u.Host, base.Host) {
		return "", ErrBlobURLNotManaged
	}

	prefix := strings.TrimSuffix(base.Path, "/") + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", ErrBlobURLNotManaged
	}

	p := strings.TrimLeft(strings.TrimPrefix(u.Path, prefix), "/")
	if p == "" || strings.HasSuffix(p, "/") {
		return "", ErrBlobURLNotManaged
	}
	return p, nil
}

func (c *blobDeletionClient) Delete(ctx context.Context, blobURL string) {
	if blobURL == "" || c.deleter == nil {
		return
	}
	if c.pool == nil {
		c.DeleteNow(ctx, blobURL)
		return
	}

	err := c.pool.SubmitAsync(context.WithoutCancel(ctx), "blob-delete", func(ctx context.Context) error {
		c.DeleteNow(ctx, blobURL)
		return nil
	})
	if err != nil {
		c.logger.Warn("blob deletion not dispatched",
			zap.String(logger.FieldBlobURL, blobURL),
			zap.Error(err))
		c.metrics.blobDeleted(c.deleter.Name(), "dropped")
	}
}

func (c *blobDeletionClient) DeleteNow(ctx context.Context, blobURL string) {
	if blobURL == "" || c.deleter == nil {
		return
	}

	p, err := ObjectPath(blobURL, c.baseURL)
	if err != nil {
		c.logger.Debug("blob url skipped",
			zap.String(logger.FieldBlobURL, blobURL),
			zap.Error(err))
		c.metrics.blobDeleted(c.deleter.Name(), "skipped")
		return
	}

	if err := c.deleter.Delete(ctx, p); err != nil {
		c.logger.Warn("blob deletion failed",
			zap.String(logger.FieldBackend, c.deleter.Name()),
			zap.String(logger.FieldPath, p),
			zap.Error(err))
		c.metrics.blobDeleted(c.deleter.Name(), "failed")
		return
	}
	c.metrics.blobDeleted(c.deleter.Name(), "deleted")
}
