package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"waste-recycling-tracker/internal/core/config"
	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/stats"
	"waste-recycling-tracker/internal/transport/http/router"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	c, err := config.Load("")
	require.NoError(t, err)
	c.DB.DSN = filepath.Join(t.TempDir(), "waste.db")
	c.DB.LogLevel = "silent"
	return c
}

func TestBuild_ScanMode(t *testing.T) {
	cfg := testConfig(t)
	deps, cleanup, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, deps.Counter)
	_, ok := deps.Stats.(*stats.Scanner)
	assert.True(t, ok)

	ctx := context.Background()
	_, err = deps.Waste.Submit(ctx, "Smith", "Plastic", 2.5)
	require.NoError(t, err)

	s, err := deps.Stats.Global(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.TotalEntries)
}

func TestBuild_RedisModeSeedsCounter(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	ctx := context.Background()

	// 先用 scan 模式写入数据
	deps, cleanup, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = deps.Waste.Submit(ctx, "Smith", "Plastic", 2.5)
	require.NoError(t, err)
	_, err = deps.Waste.Submit(ctx, "Jones", "Glass", 1)
	require.NoError(t, err)
	cleanup()

	cfg.Stats.Mode = "redis"
	cfg.Redis.Addr = mr.Addr()
	deps, cleanup, err = Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, deps.Counter)

	s, err := deps.Stats.Global(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.TotalEntries)
	assert.EqualValues(t, 2, s.TotalFamilies)

	// 之后的写入走增量计数
	_, err = deps.Waste.Submit(ctx, "Smith", "Paper", 1)
	require.NoError(t, err)
	s, err = deps.Stats.Family(ctx, "Smith")
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.TotalEntries)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Stats.Mode = "memcached"
	_, cleanup, err := Build(ctx, cfg, zap.NewNop())
	cleanup()
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Password.Hasher = "md5"
	_, cleanup, err = Build(ctx, cfg, zap.NewNop())
	cleanup()
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.DB.Driver = "oracle"
	_, cleanup, err = Build(ctx, cfg, zap.NewNop())
	cleanup()
	assert.Error(t, err)
}

func TestRun_ClosesDependencies(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	// 启动失败也要关闭已打开的 DB
	cfg := testConfig(t)
	cfg.Stats.Mode = "memcached"
	err := Run(context.Background(), cfg, log, "api", cfg.App.HTTP, router.NewAPIEngine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap")
	assert.Equal(t, 1, logs.FilterMessage("api dependencies closed").Len())

	// ctx 取消后优雅退出
	cfg = testConfig(t)
	cfg.App.Admin.Host, cfg.App.Admin.Port = "127.0.0.1", 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, Run(ctx, cfg, log, "admin", cfg.App.Admin, router.NewAdminEngine))
	assert.Equal(t, 1, logs.FilterMessage("admin dependencies closed").Len())
	assert.Equal(t, 1, logs.FilterMessage("admin stopped gracefully").Len())
}

func TestBuild_BootstrapUser(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Auth.Policy = "jwt"
	cfg.Auth.Bootstrap = config.Bootstrap{Username: "root", Password: "s3cret"}

	deps, cleanup, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	u, err := deps.Users.Authenticate(ctx, "root", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCenter, u.Role)

	// 新库拿到 admin token 后能建第一个普通用户
	tok, err := deps.JWT.Issue(strconv.FormatInt(u.ID, 10), u.Username, string(u.Role))
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users",
		strings.NewReader(`{"username":"alice","password":"pw","role":"FAMILY"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	router.NewAdminEngine(deps).ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cleanup()

	// 再次启动不会重复创建，也不改已有密码
	cfg.Auth.Bootstrap.Password = "changed"
	deps, cleanup, err = Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	_, err = deps.Users.Authenticate(ctx, "root", "s3cret")
	assert.NoError(t, err)

	cfg.Auth.Bootstrap.Password = ""
	_, cleanup2, err := Build(ctx, cfg, zap.NewNop())
	cleanup2()
	assert.Error(t, err)
}
