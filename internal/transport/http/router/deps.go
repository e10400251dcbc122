package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"waste-recycling-tracker/internal/core/auth"
	"waste-recycling-tracker/internal/core/config"
	"waste-recycling-tracker/internal/core/server"
	"waste-recycling-tracker/internal/notify"
	"waste-recycling-tracker/internal/service"
	"waste-recycling-tracker/internal/stats"
	"waste-recycling-tracker/internal/transport/http/ez"
	"waste-recycling-tracker/internal/transport/http/handler"
	mdw "waste-recycling-tracker/internal/transport/http/middleware"
)

// Deps 两个 engine 共用的依赖
type Deps struct {
	Log      *zap.Logger
	Cfg      *config.Config
	Policy   auth.Policy
	JWT      *auth.JWTer
	Waste    *service.WasteService
	Users    *service.UserService
	Stats    stats.Aggregator
	Counter  *stats.Counter // stats.mode=redis 时非空
	Notifier *notify.Notifier
}

func newEngine(d Deps) *gin.Engine {
	ez.RegisterValidators()

	mode := gin.DebugMode
	if d.Cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}
	if gin.Mode() == gin.TestMode {
		mode = gin.TestMode
	}
	r := server.NewRouter(d.Log, server.Options{
		Mode:         mode,
		AllowOrigins: d.Cfg.CORS.AllowOrigins,
		OnPanic:      mdw.RenderPanic,
	})

	// 中间件；limits 里为 0 的项不启用
	lim := d.Cfg.Limits
	r.Use(mdw.RequestID())
	switch {
	case lim.RPS > 0 && lim.PerIP:
		r.Use(mdw.RateLimitPerIP(rate.Limit(lim.RPS), lim.Burst))
	case lim.RPS > 0:
		r.Use(mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst))
	}
	if lim.Concurrency > 0 {
		r.Use(mdw.ConcurrencyLimit(lim.Concurrency))
	}
	if lim.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.TimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(lim.TimeoutSec) * time.Second))
	}
	r.Use(mdw.Metrics(), mdw.AccessLog(d.Log))

	// 健康检查 + 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func mountAdmin(api *gin.RouterGroup, d Deps) {
	var rebuilder handler.StatsRebuilder
	if d.Counter != nil {
		rebuilder = d.Counter
	}
	g := api.Group("/admin", mdw.Authorize(d.Policy, auth.AreaAdmin))
	handler.NewAdminHandler(d.Users, d.Waste, rebuilder).Mount(ez.New(g, d.Log))
}
