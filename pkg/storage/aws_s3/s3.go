// Package aws_s3 S3 兼容存储的对象删除 (AWS S3 / Cloudflare R2 / MinIO)
package aws_s3

import (
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	// Name 后端名称 s3 / r2 / minio
	Name            string
	Endpoint        string
	Region          string
	BucketName      string
	AccessKeyID     string
	AccessKeySecret string
	CustomPath      string
	UsePathStyle    bool
}

type S3 struct {
	S3Client *s3.Client
	Config   *Config
	logger   *zap.Logger
}

// Option 配置选项函数类型
type Option func(*S3)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3) {
		s.logger = logger
	}
}

// NewClient 创建 S3 兼容存储实例
func NewClient(conf *Config, opts ...Option) (*S3, error) {
	if conf.BucketName == "" {
		return nil, errors.New("aws_s3: bucket-name is required")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.AccessKeySecret, "")),
		config.WithRegion(conf.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "aws_s3")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.UsePathStyle
	})

	p := &S3{
		S3Client: client,
		Config:   conf,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *S3) Name() string {
	if p.Config.Name != "" {
		return p.Config.Name
	}
	return "s3"
}

func (p *S3) objectKey(fileKey string) string {
	if p.Config.CustomPath == "" {
		return fileKey
	}
	return path.Join(p.Config.CustomPath, fileKey)
}

// Delete 批量删除对象，单个对象失败时返回首个错误
func (p *S3) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(paths))
	for _, fileKey := range paths {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(p.objectKey(fileKey))})
	}

	out, err := p.S3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(p.Config.BucketName),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return errors.Wrap(err, p.Name())
	}
	if len(out.Errors) > 0 {
		e := out.Errors[0]
		return errors.Errorf("%s: delete %s failed: %s", p.Name(), aws.ToString(e.Key), aws.ToString(e.Message))
	}
	return nil
}
