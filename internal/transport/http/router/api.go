package router

import (
	"github.com/gin-gonic/gin"

	"waste-recycling-tracker/internal/core/auth"
	"waste-recycling-tracker/internal/transport/http/ez"
	"waste-recycling-tracker/internal/transport/http/handler"
	mdw "waste-recycling-tracker/internal/transport/http/middleware"
)

// NewAPIEngine 对外全部接口
func NewAPIEngine(d Deps) *gin.Engine {
	r := newEngine(d)
	api := r.Group("/api")

	wasteH := handler.NewWasteHandler(d.Waste)

	family := api.Group("/family", mdw.Authorize(d.Policy, auth.AreaFamily))
	wasteH.MountFamily(ez.New(family, d.Log))

	center := api.Group("/center", mdw.Authorize(d.Policy, auth.AreaCenter))
	wasteH.MountCenter(ez.New(center, d.Log))

	statistics := api.Group("/statistics", mdw.Authorize(d.Policy, auth.AreaStatistics))
	handler.NewStatisticsHandler(d.Stats).Mount(ez.New(statistics, d.Log))

	notifications := api.Group("/notifications", mdw.Authorize(d.Policy, auth.AreaNotifications))
	handler.NewNotificationHandler(d.Notifier).Mount(notifications)

	mountAdmin(api, d)

	// 登录不鉴权
	handler.NewAuthHandler(d.Users, d.JWT).Mount(ez.New(api.Group("/auth"), d.Log))
	return r
}
