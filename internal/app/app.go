package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"waste-recycling-tracker/internal/core/auth"
	"waste-recycling-tracker/internal/core/cache"
	"waste-recycling-tracker/internal/core/config"
	"waste-recycling-tracker/internal/core/database"
	"waste-recycling-tracker/internal/core/server"
	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/notify"
	"waste-recycling-tracker/internal/repo"
	"waste-recycling-tracker/internal/service"
	"waste-recycling-tracker/internal/stats"
	"waste-recycling-tracker/internal/transport/http/router"
	"waste-recycling-tracker/pkg/utils"
)

// Build 按配置组装依赖；返回的 cleanup 关闭 DB / Redis
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (router.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := OpenDB(cfg, log)
	if err != nil {
		return router.Deps{}, cleanup, err
	}
	closers = append(closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			return router.Deps{}, cleanup, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}

	hasher, err := utils.NewHasher(cfg.Password.Hasher)
	if err != nil {
		return router.Deps{}, cleanup, err
	}
	if _, ok := hasher.(utils.PlainHasher); ok {
		log.Warn("passwords are stored in clear text; set password.hasher to bcrypt or argon2id")
	}

	jwter := auth.NewJWTer(cfg.JWT)
	policy, err := auth.NewPolicy(cfg.Auth, jwter)
	if err != nil {
		return router.Deps{}, cleanup, err
	}
	log.Info("auth policy", zap.String("policy", cfg.Auth.Policy))

	wasteRepo := repo.NewWasteRepo(db)
	notifier := notify.New(notify.LogSink{L: log.Named("notify")})

	deps := router.Deps{
		Log:      log,
		Cfg:      cfg,
		Policy:   policy,
		JWT:      jwter,
		Users:    service.NewUserService(repo.NewUserRepo(db), hasher),
		Stats:    stats.NewScanner(wasteRepo),
		Notifier: notifier,
	}

	if err := seedBootstrapUser(ctx, deps.Users, cfg.Auth.Bootstrap, log); err != nil {
		return router.Deps{}, cleanup, err
	}

	opts := []service.WasteOption{}
	if cfg.Notify.OnLifecycle {
		opts = append(opts, service.WithNotifier(notifier))
	}

	switch cfg.Stats.Mode {
	case "", "scan":
	case "redis":
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			return router.Deps{}, cleanup, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		counter, err := seedCounter(ctx, rdb, cfg.Stats.KeyPrefix, wasteRepo, log)
		if err != nil {
			return router.Deps{}, cleanup, err
		}
		deps.Counter = counter
		deps.Stats = counter
		opts = append(opts, service.WithRecorder(counter))
	default:
		return router.Deps{}, cleanup, fmt.Errorf("unknown stats mode %q", cfg.Stats.Mode)
	}

	deps.Waste = service.NewWasteService(wasteRepo, log.Named("waste"), opts...)
	return deps, cleanup, nil
}

// seedBootstrapUser 配置了 auth.bootstrap 且账号不存在时创建 CENTER 用户；已存在则不动
func seedBootstrapUser(ctx context.Context, users *service.UserService, b config.Bootstrap, log *zap.Logger) error {
	if b.Username == "" {
		return nil
	}
	if b.Password == "" {
		return fmt.Errorf("auth.bootstrap.password is empty for user %q", b.Username)
	}
	_, err := users.Create(ctx, b.Username, b.Password, string(domain.RoleCenter))
	switch {
	case err == nil:
		log.Info("bootstrap user created", zap.String("username", b.Username))
	case errors.Is(err, domain.ErrAlreadyExists):
	default:
		return fmt.Errorf("bootstrap user: %w", err)
	}
	return nil
}

// seedCounter 启动时按数据库重建计数
func seedCounter(ctx context.Context, rdb *redis.Client, prefix string, r *repo.WasteRepo, log *zap.Logger) (*stats.Counter, error) {
	counter := stats.NewCounter(rdb, prefix)
	entries, err := r.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	if err := counter.Rebuild(ctx, entries); err != nil {
		return nil, err
	}
	log.Info("stats counters rebuilt", zap.Int("entries", len(entries)), zap.String("prefix", prefix))
	return counter, nil
}

func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
}

// Run 组装依赖并启动监听；返回前一定关闭 DB / Redis
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, name string, h config.HTTP, mount func(router.Deps) *gin.Engine) error {
	deps, closeDeps, err := Build(ctx, cfg, log)
	defer func() {
		closeDeps()
		log.Info(name + " dependencies closed")
	}()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return Serve(ctx, name, h, mount(deps), log)
}

// Serve 启动 HTTP，ctx 取消或收到 SIGINT/SIGTERM 时优雅关闭
func Serve(ctx context.Context, name string, h config.HTTP, handler http.Handler, log *zap.Logger) error {
	addr := server.Addr(h.Host, h.Port)
	srv := server.BuildServer(
		addr, handler,
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	// 启动前打印可点击地址
	host4human := h.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := fmt.Sprintf("http://%s:%d", host4human, h.Port)
	log.Info(name+" starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s start: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown: %w", name, err)
	}
	log.Info(name + " stopped gracefully")
	return nil
}
