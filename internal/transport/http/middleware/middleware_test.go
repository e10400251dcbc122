package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"waste-recycling-tracker/internal/core/auth"
	"waste-recycling-tracker/internal/core/config"
	mdw "waste-recycling-tracker/internal/transport/http/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(mdw.RequestID())
	r.GET("/", func(c *gin.Context) { c.String(200, c.GetString(mdw.KeyRequestID)) })

	w := serve(r, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, w.Header().Get(mdw.KeyRequestID))
	assert.Equal(t, w.Header().Get(mdw.KeyRequestID), w.Body.String())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(mdw.KeyRequestID, "abc")
	assert.Equal(t, "abc", serve(r, req).Body.String())
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(mdw.RateLimitPerIP(0.001, 1))
	r.GET("/", func(c *gin.Context) { c.Status(200) })

	req := func(ip string) int {
		rq := httptest.NewRequest("GET", "/", nil)
		rq.RemoteAddr = ip + ":1234"
		return serve(r, rq).Code
	}
	assert.Equal(t, 200, req("10.0.0.1"))
	assert.Equal(t, 429, req("10.0.0.1"))
	assert.Equal(t, 200, req("10.0.0.2"))
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(mdw.Timeout(10 * time.Millisecond))
	r.GET("/", func(c *gin.Context) { <-c.Request.Context().Done() })

	assert.Equal(t, 504, serve(r, httptest.NewRequest("GET", "/", nil)).Code)
}

func TestAuthorize(t *testing.T) {
	j := auth.NewJWTer(config.JWT{Secret: "s", Issuer: "i", AccessTokenTTLMin: 5})
	p, err := auth.NewPolicy(config.Auth{Policy: "jwt", Rules: map[string][]string{"center": {"CENTER"}}}, j)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/center", mdw.Authorize(p, auth.AreaCenter), func(c *gin.Context) {
		claims := c.MustGet(mdw.KeyClaims).(*auth.Claims)
		c.String(200, claims.Username)
	})

	assert.Equal(t, 401, serve(r, httptest.NewRequest("GET", "/center", nil)).Code)

	fam, _ := j.Issue("1", "fam", "FAMILY")
	req := httptest.NewRequest("GET", "/center", nil)
	req.Header.Set("Authorization", "Bearer "+fam)
	assert.Equal(t, 403, serve(r, req).Code)

	cen, _ := j.Issue("2", "cen", "CENTER")
	req = httptest.NewRequest("GET", "/center", nil)
	req.Header.Set("Authorization", "Bearer "+cen)
	w := serve(r, req)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "cen", w.Body.String())
}

func TestAccessLog_MasksSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(mdw.RequestID(), mdw.AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(404) })

	serve(r, httptest.NewRequest("GET", "/x?token=abc&page=2", nil))

	entries := logs.FilterMessage("HTTP").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	q := entries[0].ContextMap()["query"]
	assert.Contains(t, q, "token")
	assert.Equal(t, []string{"****"}, q.(map[string][]string)["token"])
	assert.Equal(t, []string{"2"}, q.(map[string][]string)["page"])
}
