// Package storage 提供媒体对象删除后端
// 分享记录只持有媒体 URL，删除时由这里的后端负责回收对象
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/haierkeys/gift-share-service/pkg/storage/aliyun_oss"
	"github.com/haierkeys/gift-share-service/pkg/storage/aws_s3"
	"github.com/haierkeys/gift-share-service/pkg/storage/local_fs"
	"github.com/haierkeys/gift-share-service/pkg/storage/media"
	"github.com/haierkeys/gift-share-service/pkg/storage/webdav"

	"go.uber.org/zap"
)

type Type = string

const (
	None   Type = "none"
	Media  Type = "media"
	S3     Type = "s3"
	R2     Type = "r2"
	MinIO  Type = "minio"
	OSS    Type = "oss"
	WebDAV Type = "webdav"
	LOCAL  Type = "localfs"
)

// StorageTypeMap 支持的后端类型
var StorageTypeMap = map[Type]bool{
	Media:  true,
	S3:     true,
	R2:     true,
	MinIO:  true,
	OSS:    true,
	WebDAV: true,
	LOCAL:  true,
}

// Config 统一的媒体后端配置
type Config struct {
	// Type 后端类型，none 表示不删除媒体
	Type Type `yaml:"type" default:"media"`
	// PublicBaseURL 媒体对外访问前缀，只有此前缀下的 URL 才会被删除
	PublicBaseURL string `yaml:"public-base-url"`

	// Media 服务
	DeleteEndpoint string `yaml:"delete-endpoint"`
	UploadSecret   string `yaml:"upload-secret"`
	Timeout        string `yaml:"timeout" default:"10s"`

	// Cloud Storage (S3/OSS/MinIO/R2)
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	AccountID       string `yaml:"account-id"`
	CustomPath      string `yaml:"custom-path"`

	// WebDAV
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Local FS
	SavePath string `yaml:"save-path"`
}

// Deleter 删除一个或多个媒体对象
// paths 为相对 PublicBaseURL 的对象路径
type Deleter interface {
	Name() string
	Delete(ctx context.Context, paths ...string) error
}

// NewDeleter 根据配置创建删除后端
// Type 为空或 none 时返回 nil, nil
func NewDeleter(cfg *Config, logger *zap.Logger) (Deleter, error) {
	if cfg == nil || cfg.Type == "" || cfg.Type == None {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Type) {
	case Media:
		return media.NewClient(&media.Config{
			DeleteEndpoint: cfg.DeleteEndpoint,
			UploadSecret:   cfg.UploadSecret,
			Timeout:        cfg.Timeout,
		}, media.WithLogger(logger))
	case S3, R2, MinIO:
		endpoint := cfg.Endpoint
		if cfg.Type == R2 && endpoint == "" && cfg.AccountID != "" {
			endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
		}
		region := cfg.Region
		if cfg.Type == R2 && region == "" {
			region = "auto"
		}
		return aws_s3.NewClient(&aws_s3.Config{
			Name:            cfg.Type,
			Endpoint:        endpoint,
			Region:          region,
			BucketName:      cfg.BucketName,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			CustomPath:      cfg.CustomPath,
			UsePathStyle:    cfg.Type == MinIO,
		}, aws_s3.WithLogger(logger))
	case OSS:
		return aliyun_oss.NewClient(&aliyun_oss.Config{
			Endpoint:        cfg.Endpoint,
			BucketName:      cfg.BucketName,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			CustomPath:      cfg.CustomPath,
		})
	case WebDAV:
		return webdav.NewClient(&webdav.Config{
			Endpoint:   cfg.Endpoint,
			User:       cfg.User,
			Password:   cfg.Password,
			CustomPath: cfg.CustomPath,
		})
	case LOCAL:
		return local_fs.NewClient(&local_fs.Config{
			SavePath:   cfg.SavePath,
			CustomPath: cfg.CustomPath,
		})
	}
	return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
}
