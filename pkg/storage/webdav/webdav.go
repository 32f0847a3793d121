// Package webdav WebDAV 对象删除
package webdav

import (
	"context"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

// Config 结构体用于存储 WebDAV 连接信息。
type Config struct {
	Endpoint   string
	User       string
	Password   string
	CustomPath string
}

// WebDAV 结构体表示 WebDAV 客户端。
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

// NewClient 创建一个新的 WebDAV 客户端实例。
func NewClient(conf *Config) (*WebDAV, error) {
	if conf.Endpoint == "" {
		return nil, errors.New("webdav: endpoint is required")
	}
	return &WebDAV{
		Client: gowebdav.NewClient(conf.Endpoint, conf.User, conf.Password),
		Config: conf,
	}, nil
}

func (w *WebDAV) Name() string {
	return "webdav"
}

// Delete 逐个删除，已不存在的对象视为成功
func (w *WebDAV) Delete(ctx context.Context, paths ...string) error {
	for _, fileKey := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.Client.Remove(path.Join("/", w.Config.CustomPath, fileKey))
		if err != nil && !os.IsNotExist(err) && !gowebdav.IsErrNotFound(err) {
			return errors.Wrap(err, "webdav")
		}
	}
	return nil
}
