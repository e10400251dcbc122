package middleware

import (
	"github.com/gin-gonic/gin"

	resp "waste-recycling-tracker/internal/transport/http/response"
)

// RenderPanic 交给 ginzap.CustomRecoveryWithZap；堆栈由 ginzap 记录
func RenderPanic(c *gin.Context, _ any) {
	resp.Abort(c, resp.CodeServerError, "internal error")
}
