package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"waste-recycling-tracker/internal/core/auth"
	resp "waste-recycling-tracker/internal/transport/http/response"
)

const KeyClaims = "claims"

// Authorize 路由组入口鉴权；allow_all 策略下直接放行
func Authorize(p auth.Policy, area auth.Area) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := p.Authorize(c.Request, area)
		switch {
		case errors.Is(err, auth.ErrForbidden):
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		case err != nil:
			resp.Abort(c, resp.CodeUnauthorized, "unauthorized")
			return
		}
		if claims != nil {
			c.Set(KeyClaims, claims)
		}
		c.Next()
	}
}
