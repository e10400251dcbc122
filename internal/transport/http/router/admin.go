package router

import (
	"github.com/gin-gonic/gin"
)

// NewAdminEngine 只开放 /api/admin，供内网独立端口使用
func NewAdminEngine(d Deps) *gin.Engine {
	r := newEngine(d)
	mountAdmin(r.Group("/api"), d)
	return r
}
