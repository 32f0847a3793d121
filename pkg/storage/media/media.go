// Package media 调用媒体服务的批量删除接口
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haierkeys/gift-share-service/pkg/util"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// UploadTokenHeader 媒体服务的共享密钥请求头
const UploadTokenHeader = "x-upload-token"

var (
	// ErrNotConfigured 删除接口或密钥未配置
	ErrNotConfigured = errors.New("media service is not configured")
)

type Config struct {
	DeleteEndpoint string `yaml:"delete-endpoint"`
	UploadSecret   string `yaml:"upload-secret"`
	Timeout        string `yaml:"timeout" default:"10s"`
}

// Client 媒体服务删除客户端
type Client struct {
	Config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option 配置选项函数类型
type Option func(*Client)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

type deleteRequest struct {
	Paths []string `json:"paths"`
}

func NewClient(conf *Config, opts ...Option) (*Client, error) {
	c := &Client{
		Config:     conf,
		httpClient: &http.Client{Timeout: util.MustParseDuration(conf.Timeout, 10*time.Second)},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string {
	return "media"
}

// Delete POST {"paths": [...]} 到删除接口，2xx 视为成功
func (c *Client) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if c.Config.DeleteEndpoint == "" || c.Config.UploadSecret == "" {
		return ErrNotConfigured
	}

	body, err := sonic.Marshal(deleteRequest{Paths: paths})
	if err != nil {
		return errors.Wrap(err, "media")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.DeleteEndpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "media")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(UploadTokenHeader, c.Config.UploadSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "media")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("media: delete returned status %d", resp.StatusCode)
	}

	c.logger.Debug("media objects deleted", zap.Strings("paths", paths))
	return nil
}
