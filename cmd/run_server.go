package cmd

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	internalApp "github.com/haierkeys/gift-share-service/internal/app"
	"github.com/haierkeys/gift-share-service/internal/dao"
	"github.com/haierkeys/gift-share-service/internal/routers"
	"github.com/haierkeys/gift-share-service/internal/task"
	"github.com/haierkeys/gift-share-service/pkg/code"
	"github.com/haierkeys/gift-share-service/pkg/fileurl"
	"github.com/haierkeys/gift-share-service/pkg/logger"
	"github.com/haierkeys/gift-share-service/pkg/safe_close"
	"github.com/haierkeys/gift-share-service/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

type Server struct {
	logger            *zap.Logger             // 日志对象
	config            *internalApp.AppConfig  // 应用配置
	ut                *ut.UniversalTranslator // 翻译器
	httpServer        *http.Server
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
	app               *internalApp.App
}

// checkSecurityConfig 会话密钥仍为占位值时输出警告
func checkSecurityConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	if cfg.Session.Secret == "" {
		lg.Warn("session.secret is empty, every request is treated as anonymous")
		return
	}
	if cfg.Session.Secret == defaultSessionSecret {
		fmt.Println()
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("SECURITY WARNING: Using default session secret!")
		fmt.Println()
		fmt.Println("Please modify 'session.secret' in config.yaml")
		fmt.Println("Generate a secure key with:")
		fmt.Println("  openssl rand -base64 32")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println()

		lg.Warn("Using default session secret - please change session.secret in config.yaml")
	}
}

// bootApp 加载配置并创建日志器、数据库和 App Container，run 与运维命令共用
func bootApp(configFile string, runMode string) (*internalApp.App, string, error) {
	cfg, realpath, err := internalApp.LoadConfig(configFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if runMode != "" {
		cfg.Server.RunMode = runMode
	}

	if err := fileurl.EnsureParentDirs(0754, cfg.Log.File, sqlitePath(cfg)); err != nil {
		return nil, "", fmt.Errorf("initStorage: %w", err)
	}

	lg, err := logger.NewLogger(cfg.GetLoggerConfig())
	if err != nil {
		return nil, "", fmt.Errorf("initLogger: %w", err)
	}

	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), lg)
	if err != nil {
		return nil, "", fmt.Errorf("initDatabase: %w", err)
	}

	a, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create app container: %w", err)
	}
	return a, realpath, nil
}

func sqlitePath(cfg *internalApp.AppConfig) string {
	if cfg.Database.Type != "sqlite" {
		return ""
	}
	return cfg.Database.Path
}

func NewServer(runEnv *runFlags) (*Server, error) {
	a, configRealpath, err := bootApp(runEnv.config, runEnv.runMode)
	if err != nil {
		return nil, err
	}
	appConfig := a.Config()
	if runEnv.port != "" {
		appConfig.Server.HttpPort = ":" + strings.TrimPrefix(runEnv.port, ":")
	}

	gin.SetMode(appConfig.Server.RunMode)

	s := &Server{
		logger: a.Logger(),
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
		app:    a,
	}

	checkSecurityConfig(appConfig, s.logger)

	if err := code.SetGlobalDefaultLang(appConfig.App.Lang); err != nil {
		s.logger.Warn("unsupported default language, keep en", zap.String("lang", appConfig.App.Lang), zap.Error(err))
	}

	// 表结构也会在首次访问时迁移，这里提前执行以尽早暴露数据库问题
	ctx, cancel := context.WithTimeout(context.Background(), appConfig.GetContextTimeout())
	if err := a.EnsureSchema(ctx); err != nil {
		s.logger.Warn("schema migration deferred to first use", zap.Error(err))
	}
	cancel()

	uni, err := initValidator()
	if err != nil {
		_ = a.Shutdown(context.Background())
		return nil, fmt.Errorf("initValidator: %w", err)
	}
	s.ut = uni

	initScheduler(s)

	banner := `
   _____ _  __ _     _____ _
  / ____(_)/ _| |   / ____| |
 | |  __ _| |_| |_ | (___ | |__   __ _ _ __ ___
 | | |_ | |  _| __| \___ \| '_ \ / _' | '__/ _ \
 | |__| | | | | |_  ____) | | | | (_| | | |  __/
  \_____|_|_|  \__||_____/|_| |_|\__,_|_|  \___|`
	s.logger.Warn(fmt.Sprintf("%s\n\n%s %s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.CanonicalVersion(), internalApp.GitTag, internalApp.BuildTime))

	s.logger.Warn("config loaded", zap.String("path", configRealpath))

	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewRouter(s.app, s.ut),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve(s.httpServer, "api service")
	}

	if httpAddr := appConfig.Server.PrivateHttpListen; len(httpAddr) > 0 {
		s.logger.Info("api_router", zap.String("config.server.PrivateHttpListen", httpAddr))
		s.privateHttpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewPrivateRouter(s.app),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve(s.privateHttpServer, "private api service")
	}

	// App Container 的优雅关闭
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal

		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()

		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			s.logger.Info("App container shutdown gracefully")
		}
	})

	return s, nil
}

// serve 在 SafeClose 中运行 HTTP 服务，收到关闭信号后停止
func (s *Server) serve(srv *http.Server, name string) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// 停止HTTP服务器
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

func initScheduler(s *Server) {
	manager := task.NewManager(s.app, s.sc)

	// 注册所有任务(业务层控制)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}

	manager.Start()
}

// initValidator 安装自定义校验器并注册中英文翻译
func initValidator() (*ut.UniversalTranslator, error) {
	customValidator := validator.Install()

	var uni *ut.UniversalTranslator

	validate, ok := customValidator.Engine().(*validatorV10.Validate)
	if ok {
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		uni = ut.New(en.New(), en.New(), zh.New())

		zhTran, _ := uni.GetTranslator("zh")
		enTran, _ := uni.GetTranslator("en")

		if err := zh_translations.RegisterDefaultTranslations(validate, zhTran); err != nil {
			return nil, err
		}
		if err := en_translations.RegisterDefaultTranslations(validate, enTran); err != nil {
			return nil, err
		}
	}

	return uni, nil
}

// GetApp 获取 App Container
func (s *Server) GetApp() *internalApp.App {
	return s.app
}
