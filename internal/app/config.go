// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/gift-share-service/internal/dao"
	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/internal/service"
	"github.com/haierkeys/gift-share-service/pkg/locker"
	"github.com/haierkeys/gift-share-service/pkg/logger"
	"github.com/haierkeys/gift-share-service/pkg/storage"
	"github.com/haierkeys/gift-share-service/pkg/util"
	"github.com/haierkeys/gift-share-service/pkg/workerpool"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀，如 GSS_SERVER_HTTP_PORT 覆盖 server.http-port
const EnvPrefix = "GSS"

// AppConfig 应用配置
type AppConfig struct {
	File     string          `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig    `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
	Database DatabaseConfig  `yaml:"database"`
	App      AppSettings     `yaml:"app"`
	Share    ShareSettings   `yaml:"share"`
	Storage  storage.Config  `yaml:"storage"`
	Redis    locker.Config   `yaml:"redis"`
	Session  SessionConfig   `yaml:"session"`
	Limit    RateLimitConfig `yaml:"rate-limit"`
	Tracer   TracerConfig    `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址 (metrics / pprof)，为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
	// CorsOrigins 允许跨域的来源，* 表示全部
	CorsOrigins []string `yaml:"cors-origins"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型 sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// Charset 字符集
	Charset string `yaml:"charset"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
	// Replicas 只读副本
	Replicas []string `yaml:"replicas"`
	// Tracing 是否为 SQL 开启 opentracing
	Tracing bool `yaml:"tracing"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// Lang 默认响应语言
	Lang string `yaml:"lang" default:"en"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1024"`
}

// TierConfig 单个账户等级的保留策略
type TierConfig struct {
	RetentionDays int   `yaml:"retention-days"`
	AccessLimit   int64 `yaml:"access-limit"`
}

// ShareSettings 分享生命周期配置
type ShareSettings struct {
	// PublicBaseURL 分享链接前缀，为空时使用请求的 Host
	PublicBaseURL string `yaml:"public-base-url"`
	// ViewPath 分享链接路径模板
	ViewPath string `yaml:"view-path" default:"/{artifact}/view?token={token}"`
	// GracePeriod 访问用完后延迟删除的时间，0 表示立即删除
	GracePeriod string `yaml:"grace-period" default:"30s"`
	// MaxRetentionDays 保留天数上限
	MaxRetentionDays int `yaml:"max-retention-days" default:"30"`
	// MaxAccessLimit 访问次数上限（不限次数的等级除外）
	MaxAccessLimit int64 `yaml:"max-access-limit" default:"100"`
	// Tiers 各账户等级的策略，为空时使用内置等级表
	Tiers map[string]TierConfig `yaml:"tiers"`
	// SweepInterval 过期清理间隔
	SweepInterval string `yaml:"sweep-interval" default:"30m"`
	// SweepCron 过期清理的 cron 表达式，设置后优先于 SweepInterval
	SweepCron string `yaml:"sweep-cron"`
	// SweepBatchSize 每轮清理的记录数
	SweepBatchSize int `yaml:"sweep-batch-size" default:"100"`
}

// SessionConfig 账户会话 Cookie 配置
type SessionConfig struct {
	CookieName string `yaml:"cookie-name" default:"gss_session"`
	// Secret 为空时所有请求都按匿名处理
	Secret string `yaml:"secret"`
	Expiry string `yaml:"expiry" default:"30d"`
}

// RateLimitConfig 限流配置，按客户端 IP 计数
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// FillInterval 放入令牌的间隔
	FillInterval string `yaml:"fill-interval" default:"1s"`
	// ShareCapacity 打开分享接口的桶容量
	ShareCapacity int64 `yaml:"share-capacity" default:"20"`
	// SubmitCapacity 创建分享接口的桶容量
	SubmitCapacity int64 `yaml:"submit-capacity" default:"5"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称
	Header string `yaml:"header" default:"X-Trace-ID"`
	// JaegerAgent jaeger agent 地址，为空时不上报 span
	JaegerAgent string `yaml:"jaeger-agent"`
	// ServiceName 上报的服务名
	ServiceName string `yaml:"service-name" default:"gift-share-service"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 先填默认值，YAML 只覆盖文件中出现的键
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	if err := c.applyEnv(); err != nil {
		return nil, realpath, errors.Wrap(err, "apply env overrides failed")
	}

	return c, realpath, nil
}

// applyEnv 使用 GSS_ 前缀的环境变量覆盖文件中的值
func (c *AppConfig) applyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	strs := map[string]*string{
		"server.run-mode":            &c.Server.RunMode,
		"server.http-port":           &c.Server.HttpPort,
		"server.private-http-listen": &c.Server.PrivateHttpListen,
		"log.level":                  &c.Log.Level,
		"log.file":                   &c.Log.File,
		"database.type":              &c.Database.Type,
		"database.path":              &c.Database.Path,
		"database.host":              &c.Database.Host,
		"database.name":              &c.Database.Name,
		"database.username":          &c.Database.UserName,
		"database.password":          &c.Database.Password,
		"share.public-base-url":      &c.Share.PublicBaseURL,
		"share.grace-period":         &c.Share.GracePeriod,
		"share.sweep-interval":       &c.Share.SweepInterval,
		"share.sweep-cron":           &c.Share.SweepCron,
		"storage.type":               &c.Storage.Type,
		"storage.public-base-url":    &c.Storage.PublicBaseURL,
		"storage.delete-endpoint":    &c.Storage.DeleteEndpoint,
		"storage.upload-secret":      &c.Storage.UploadSecret,
		"redis.addr":                 &c.Redis.Addr,
		"redis.password":             &c.Redis.Password,
		"session.secret":             &c.Session.Secret,
		"tracer.jaeger-agent":        &c.Tracer.JaegerAgent,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		"share.max-retention-days": &c.Share.MaxRetentionDays,
		"share.sweep-batch-size":   &c.Share.SweepBatchSize,
		"redis.db":                 &c.Redis.DB,
	}
	for key, dst := range ints {
		if !v.IsSet(key) {
			continue
		}
		n, err := cast.ToIntE(v.Get(key))
		if err != nil {
			return errors.Wrapf(err, "env %s_%s", EnvPrefix, envKey(key))
		}
		*dst = n
	}

	if v.IsSet("share.max-access-limit") {
		n, err := cast.ToInt64E(v.Get("share.max-access-limit"))
		if err != nil {
			return errors.Wrapf(err, "env %s_%s", EnvPrefix, envKey("share.max-access-limit"))
		}
		c.Share.MaxAccessLimit = n
	}

	if v.IsSet("log.production") {
		b, err := cast.ToBoolE(v.Get("log.production"))
		if err != nil {
			return errors.Wrapf(err, "env %s_%s", EnvPrefix, envKey("log.production"))
		}
		c.Log.Production = b
	}
	return nil
}

func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetDatabaseConfig 获取 DAO 使用的数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Name:            c.Database.Name,
		TablePrefix:     c.Database.TablePrefix,
		Charset:         c.Database.Charset,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
		Replicas:        c.Database.Replicas,
		Tracing:         c.Database.Tracing && c.Tracer.JaegerAgent != "",
		RunMode:         c.Server.RunMode,
	}
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}
	return cfg
}

// GetRetentionConfig 获取保留策略配置
func (c *AppConfig) GetRetentionConfig() service.RetentionConfig {
	tiers := service.DefaultTiers()
	if len(c.Share.Tiers) > 0 {
		tiers = make(map[domain.AccountTier]service.TierPolicy, len(c.Share.Tiers))
		for name, t := range c.Share.Tiers {
			tiers[domain.AccountTier(strings.ToLower(name))] = service.TierPolicy{
				RetentionDays: t.RetentionDays,
				AccessLimit:   t.AccessLimit,
			}
		}
	}
	return service.RetentionConfig{
		MaxRetentionDays: c.Share.MaxRetentionDays,
		MaxAccessLimit:   c.Share.MaxAccessLimit,
		Tiers:            tiers,
	}
}

// GetShareConfig 获取单个分享类型的引擎配置
func (c *AppConfig) GetShareConfig(artifact string) service.ShareConfig {
	return service.ShareConfig{
		Artifact:       artifact,
		PublicBaseURL:  c.Share.PublicBaseURL,
		ViewPath:       c.Share.ViewPath,
		GracePeriod:    c.GetGracePeriod(),
		SweepBatchSize: c.Share.SweepBatchSize,
	}
}

// GetGracePeriod 获取延迟删除的宽限期
func (c *AppConfig) GetGracePeriod() time.Duration {
	return util.MustParseDuration(c.Share.GracePeriod, service.DefaultGracePeriod)
}

// GetSweepInterval 获取过期清理间隔
func (c *AppConfig) GetSweepInterval() time.Duration {
	return util.MustParseDuration(c.Share.SweepInterval, 30*time.Minute)
}

// GetSessionExpiry 获取会话有效期
func (c *AppConfig) GetSessionExpiry() time.Duration {
	return util.MustParseDuration(c.Session.Expiry, 30*24*time.Hour)
}

// GetContextTimeout 获取请求上下文超时
func (c *AppConfig) GetContextTimeout() time.Duration {
	if c.App.DefaultContextTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.App.DefaultContextTimeout) * time.Second
}
