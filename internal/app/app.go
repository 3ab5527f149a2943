// Package app 组装注册表、钩子调度器、脚本钩子和 HTTP 服务
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yqhp/aspect/internal/config"
	"yqhp/aspect/internal/metrics"
	"yqhp/aspect/internal/server"
	"yqhp/aspect/pkg/aspect"
	"yqhp/aspect/pkg/controller"
	"yqhp/aspect/pkg/script"
)

// ShutdownTimeout 优雅关闭的最长等待时间
const ShutdownTimeout = 10 * time.Second

// App 一个完整装配好的服务
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *controller.Registry
	recorder *metrics.Recorder
	invoker  *controller.Invoker
	server   *server.Server
}

// New 根据配置创建服务
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	registry := controller.NewRegistry()
	for _, t := range Controllers(log.Named("demo")) {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}

	if err := LoadAspects(registry, cfg.Aspects, cfg.Script.Timeout, log.Named("script")); err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	dispatcher := aspect.NewDispatcher(
		aspect.WithLogger(log.Named("aspect")),
		aspect.WithObserver(recorder),
	)
	invoker := controller.NewInvoker(registry, dispatcher)

	return &App{
		cfg:      cfg,
		log:      log,
		registry: registry,
		recorder: recorder,
		invoker:  invoker,
		server: server.New(cfg.Server, invoker,
			server.WithRecorder(recorder),
			server.WithLogger(log.Named("http")),
		),
	}, nil
}

// LoadAspects 编译配置中声明的脚本钩子并注册到对应控制器。
// 按声明顺序注册，同一目标后声明的覆盖先声明的
func LoadAspects(registry *controller.Registry, aspects []config.AspectConfig, timeout time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	for i, ac := range aspects {
		t, err := registry.LookupOrError(ac.Controller)
		if err != nil {
			return fmt.Errorf("aspects[%d]: %w", i, err)
		}
		src, err := ac.Source()
		if err != nil {
			return fmt.Errorf("aspects[%d]: %w", i, err)
		}

		d := ac.Timeout
		if d <= 0 {
			d = timeout
		}
		hook, err := script.Compile(ac.DisplayName(), src, script.WithTimeout(d), script.WithLogger(log))
		if err != nil {
			return fmt.Errorf("aspects[%d]: %w", i, err)
		}
		if err := aspect.Register(t, ac.Phase, hook.Block(), ac.Actions...); err != nil {
			return fmt.Errorf("aspects[%d]: %w", i, err)
		}

		log.Info("script aspect registered",
			zap.String("name", hook.Name()),
			zap.String("controller", t.Name()),
			zap.String("phase", ac.Phase),
			zap.Strings("actions", ac.Actions),
		)
	}
	return nil
}

// Registry 返回控制器注册表
func (a *App) Registry() *controller.Registry {
	return a.registry
}

// Recorder 返回钩子耗时统计
func (a *App) Recorder() *metrics.Recorder {
	return a.recorder
}

// Server 返回 HTTP 服务
func (a *App) Server() *server.Server {
	return a.server
}

// Run 启动 HTTP 服务，ctx 结束时优雅关闭
func (a *App) Run(ctx context.Context) error {
	a.log.Info("server starting",
		zap.String("app", a.cfg.App.Name),
		zap.String("address", a.cfg.Server.Address),
		zap.Int("routes", len(a.registry.Routes())),
	)
	if err := a.server.StartWithContext(ctx, ShutdownTimeout); err != nil {
		return fmt.Errorf("服务运行失败: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}
