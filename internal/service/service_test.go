package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"waste-recycling-tracker/internal/core/database"
	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/notify"
	"waste-recycling-tracker/internal/repo"
	"waste-recycling-tracker/internal/service"
	"waste-recycling-tracker/internal/stats"
	"waste-recycling-tracker/pkg/utils"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newWasteService(t *testing.T, opts ...service.WasteOption) (*service.WasteService, *repo.WasteRepo) {
	t.Helper()
	r := repo.NewWasteRepo(newDB(t))
	opts = append([]service.WasteOption{service.WithClock(func() time.Time { return fixedNow })}, opts...)
	return service.NewWasteService(r, zap.NewNop(), opts...), r
}

func TestSubmit_ForcesPending(t *testing.T) {
	svc, _ := newWasteService(t)
	ctx := context.Background()

	e, err := svc.Submit(ctx, "Smith", "plastic", 2.5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.ID)
	assert.Equal(t, domain.StatusPending, e.Status)
	assert.True(t, fixedNow.Equal(e.CreatedAt))

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Smith", got.FamilyName)
	assert.Equal(t, 2.5, got.Quantity)
	assert.True(t, fixedNow.Equal(got.CreatedAt))
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newWasteService(t)
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_KeepsStatusAndCreatedAt(t *testing.T) {
	svc, _ := newWasteService(t)
	ctx := context.Background()

	e, err := svc.Submit(ctx, "Smith", "plastic", 2.5)
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, e.ID, "processing")
	require.NoError(t, err)

	u, err := svc.Update(ctx, e.ID, service.EntryFields{FamilyName: "Jones", WasteType: "glass", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, u.Status)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jones", got.FamilyName)
	assert.Equal(t, "glass", got.WasteType)
	assert.Equal(t, 4.0, got.Quantity)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.True(t, fixedNow.Equal(got.CreatedAt))

	_, err = svc.Update(ctx, 99, service.EntryFields{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionStatus(t *testing.T) {
	svc, _ := newWasteService(t)
	ctx := context.Background()
	e, err := svc.Submit(ctx, "Smith", "plastic", 2.5)
	require.NoError(t, err)

	// 任意状态间可切换，重复切换幂等
	for _, s := range []string{"RECYCLED", "pending", "Processing", "PROCESSING"} {
		got, err := svc.TransitionStatus(ctx, e.ID, s)
		require.NoError(t, err, s)
		want, _ := domain.ParseWasteStatus(s)
		assert.Equal(t, want, got.Status)
	}

	_, err = svc.TransitionStatus(ctx, e.ID, "BOGUS")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)

	_, err = svc.TransitionStatus(ctx, 99, "RECYCLED")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.TransitionStatus(ctx, 99, "BOGUS")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDeleteIfRecycled(t *testing.T) {
	svc, _ := newWasteService(t)
	ctx := context.Background()
	e, err := svc.Submit(ctx, "Smith", "plastic", 2.5)
	require.NoError(t, err)

	for _, s := range []string{"PENDING", "PROCESSING"} {
		_, err := svc.TransitionStatus(ctx, e.ID, s)
		require.NoError(t, err)
		assert.ErrorIs(t, svc.DeleteIfRecycled(ctx, e.ID), domain.ErrInvalidState)
	}

	_, err = svc.TransitionStatus(ctx, e.ID, "RECYCLED")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteIfRecycled(ctx, e.ID))

	_, err = svc.Get(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteIfRecycled(ctx, e.ID), domain.ErrNotFound)
}

func TestDeleteByFamily_Unconditional(t *testing.T) {
	svc, _ := newWasteService(t)
	ctx := context.Background()
	e, err := svc.Submit(ctx, "Smith", "plastic", 2.5)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByFamily(ctx, e.ID))
	assert.ErrorIs(t, svc.DeleteByFamily(ctx, e.ID), domain.ErrNotFound)
}

func TestLists(t *testing.T) {
	svc, _ := newWasteService(t)
	ctx := context.Background()
	for _, f := range []string{"Smith", "Jones", "Smith"} {
		_, err := svc.Submit(ctx, f, "paper", 1)
		require.NoError(t, err)
	}
	_, err := svc.TransitionStatus(ctx, 2, "RECYCLED")
	require.NoError(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	smith, err := svc.ListByFamily(ctx, "Smith")
	require.NoError(t, err)
	assert.Len(t, smith, 2)

	none, err := svc.ListByFamily(ctx, "smith")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	recycled, err := svc.ListByStatus(ctx, "recycled")
	require.NoError(t, err)
	require.Len(t, recycled, 1)
	assert.Equal(t, "Jones", recycled[0].FamilyName)

	_, err = svc.ListByStatus(ctx, "DONE")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestScenario_SmithLifecycle(t *testing.T) {
	svc, _ := newWasteService(t)
	ctx := context.Background()

	e, err := svc.Submit(ctx, "Smith", "plastic", 2.5)
	require.NoError(t, err)
	require.EqualValues(t, 1, e.ID)
	require.Equal(t, domain.StatusPending, e.Status)

	e, err = svc.TransitionStatus(ctx, 1, "PROCESSING")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, e.Status)

	assert.ErrorIs(t, svc.DeleteIfRecycled(ctx, 1), domain.ErrInvalidState)

	_, err = svc.TransitionStatus(ctx, 1, "RECYCLED")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteIfRecycled(ctx, 1))

	_, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLifecycleNotifications(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := notify.New(notify.LogSink{L: zap.New(core)})
	svc, _ := newWasteService(t, service.WithNotifier(n))
	ctx := context.Background()

	e, err := svc.Submit(ctx, "Smith", "plastic", 2.5)
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	_, err = svc.TransitionStatus(ctx, e.ID, "PROCESSING")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("NOTIFICATION").Len())
	assert.Zero(t, logs.FilterMessage("RECYCLING COMPLETED NOTIFICATION").Len())

	_, err = svc.TransitionStatus(ctx, e.ID, "RECYCLED")
	require.NoError(t, err)
	assert.Equal(t, 2, logs.FilterMessage("NOTIFICATION").Len())
	require.Equal(t, 1, logs.FilterMessage("RECYCLING COMPLETED NOTIFICATION").Len())
	assert.Contains(t, logs.FilterMessage("NOTIFICATION").All()[1].ContextMap()["message"], "PROCESSING → RECYCLED")
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, *domain.WasteEntry, *domain.WasteEntry) error {
	return errors.New("redis down")
}

func TestRecorderFailureIsNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := repo.NewWasteRepo(newDB(t))
	svc := service.NewWasteService(r, zap.New(core), service.WithRecorder(failingRecorder{}))

	_, err := svc.Submit(context.Background(), "Smith", "plastic", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("stats record failed").Len())
}

func TestCounterMatchesScanner(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	counter := stats.NewCounter(rdb, "svc:stats")

	svc, r := newWasteService(t, service.WithRecorder(counter))
	scanner := stats.NewScanner(r)
	ctx := context.Background()

	for _, in := range []struct {
		family, wasteType string
		qty               float64
	}{
		{"Smith", "plastic", 2.5}, {"Smith", "glass", 1.25}, {"Jones", "plastic", 0.1}, {"Jones", "paper", 0.2},
	} {
		_, err := svc.Submit(ctx, in.family, in.wasteType, in.qty)
		require.NoError(t, err)
	}
	_, err := svc.TransitionStatus(ctx, 1, "RECYCLED")
	require.NoError(t, err)
	_, err = svc.Update(ctx, 2, service.EntryFields{FamilyName: "Brown", WasteType: "glass", Quantity: 3})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteIfRecycled(ctx, 1))
	require.NoError(t, svc.DeleteByFamily(ctx, 4))

	check := func() {
		want, err := scanner.Global(ctx)
		require.NoError(t, err)
		got, err := counter.Global(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		for _, f := range []string{"Smith", "Jones", "Brown"} {
			want, err := scanner.Family(ctx, f)
			require.NoError(t, err)
			got, err := counter.Family(ctx, f)
			require.NoError(t, err)
			assert.Equal(t, want, got, f)
		}
	}
	check()

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	mr.FlushAll()
	require.NoError(t, counter.Rebuild(ctx, all))
	check()
}

func TestUserService(t *testing.T) {
	svc := service.NewUserService(repo.NewUserRepo(newDB(t)), utils.PlainHasher{})
	ctx := context.Background()

	alice, err := svc.Create(ctx, "alice", "pw", "FAMILY")
	require.NoError(t, err)
	assert.EqualValues(t, 1, alice.ID)
	assert.Equal(t, domain.RoleFamily, alice.Role)

	_, err = svc.Create(ctx, "alice", "pw2", "CENTER")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = svc.Create(ctx, "bob", "pw", "ADMIN")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.Create(ctx, "carol", "pw", "center")
	require.NoError(t, err)

	fams, err := svc.ListByRole(ctx, domain.RoleFamily)
	require.NoError(t, err)
	require.Len(t, fams, 1)
	assert.Equal(t, "alice", fams[0].Username)

	// 空密码和 nil 角色保持原值
	empty := ""
	u, err := svc.Update(ctx, alice.ID, &empty, nil)
	require.NoError(t, err)
	assert.Equal(t, "pw", u.Password)
	assert.Equal(t, domain.RoleFamily, u.Role)

	pw, role := "new", "center"
	u, err = svc.Update(ctx, alice.ID, &pw, &role)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCenter, u.Role)

	got, err := svc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Password)
	assert.Equal(t, domain.RoleCenter, got.Role)

	bad := "boss"
	_, err = svc.Update(ctx, alice.ID, nil, &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Update(ctx, 99, &pw, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Delete(ctx, alice.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alice.ID), domain.ErrNotFound)
	_, err = svc.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthenticate_WithBcrypt(t *testing.T) {
	hasher, err := utils.NewHasher("bcrypt")
	require.NoError(t, err)
	svc := service.NewUserService(repo.NewUserRepo(newDB(t)), hasher)
	ctx := context.Background()

	u, err := svc.Create(ctx, "alice", "pw", "FAMILY")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", u.Password)

	got, err := svc.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice", "nope")
	assert.ErrorIs(t, err, service.ErrBadCredentials)
	_, err = svc.Authenticate(ctx, "ghost", "pw")
	assert.ErrorIs(t, err, service.ErrBadCredentials)
}

func TestUserService_LongPasswordWithBcrypt(t *testing.T) {
	svc := service.NewUserService(repo.NewUserRepo(newDB(t)), utils.BcryptHasher{Cost: bcrypt.MinCost})
	ctx := context.Background()
	long := strings.Repeat("p", 73)

	_, err := svc.Create(ctx, "alice", long, "FAMILY")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	u, err := svc.Create(ctx, "alice", "pw", "FAMILY")
	require.NoError(t, err)
	_, err = svc.Update(ctx, u.ID, &long, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
