package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"waste-recycling-tracker/internal/core/metrics"
	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/notify"
	"waste-recycling-tracker/internal/stats"
)

// LifecycleNotifier 状态变化时的通知；nil 表示不通知
type LifecycleNotifier interface {
	StatusChange(ctx context.Context, familyName, wasteType, oldStatus, newStatus string) (notify.Message, error)
	RecyclingCompleted(ctx context.Context, familyName, wasteType string, quantity float64) (notify.Message, error)
}

// EntryFields 家庭端可修改的字段
type EntryFields struct {
	FamilyName string
	WasteType  string
	Quantity   float64
}

type WasteService struct {
	repo     domain.WasteRepository
	recorder stats.Recorder
	notifier LifecycleNotifier
	log      *zap.Logger
	now      func() time.Time
}

type WasteOption func(*WasteService)

func WithRecorder(r stats.Recorder) WasteOption { return func(s *WasteService) { s.recorder = r } }

func WithNotifier(n LifecycleNotifier) WasteOption { return func(s *WasteService) { s.notifier = n } }

func WithClock(now func() time.Time) WasteOption { return func(s *WasteService) { s.now = now } }

func NewWasteService(repo domain.WasteRepository, log *zap.Logger, opts ...WasteOption) *WasteService {
	s := &WasteService{
		repo:     repo,
		recorder: stats.Discard{},
		log:      log,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *WasteService) Submit(ctx context.Context, familyName, wasteType string, quantity float64) (*domain.WasteEntry, error) {
	e := &domain.WasteEntry{
		FamilyName: familyName,
		WasteType:  wasteType,
		Quantity:   quantity,
		Status:     domain.StatusPending,
		CreatedAt:  s.now().UTC().Truncate(time.Second),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create waste entry: %w", err)
	}
	metrics.EntriesSubmitted.Inc()
	s.record(ctx, nil, e)
	return e, nil
}

func (s *WasteService) Get(ctx context.Context, id int64) (*domain.WasteEntry, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find waste entry %d: %w", id, err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: waste entry %d", domain.ErrNotFound, id)
	}
	return e, nil
}

// Update 只改家庭/类型/数量；状态不动
func (s *WasteService) Update(ctx context.Context, id int64, f EntryFields) (*domain.WasteEntry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *e
	e.FamilyName, e.WasteType, e.Quantity = f.FamilyName, f.WasteType, f.Quantity
	if err := s.repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("save waste entry %d: %w", id, err)
	}
	s.record(ctx, &before, e)
	return e, nil
}

// TransitionStatus 任意状态之间都可以切换；先校验状态值，非法值不会触碰记录
func (s *WasteService) TransitionStatus(ctx context.Context, id int64, status string) (*domain.WasteEntry, error) {
	next, err := domain.ParseWasteStatus(status)
	if err != nil {
		return nil, err
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *e
	e.Status = next
	if err := s.repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("save waste entry %d: %w", id, err)
	}
	metrics.StatusTransitions.WithLabelValues(before.Status.String(), next.String()).Inc()
	s.record(ctx, &before, e)
	s.notifyTransition(ctx, before.Status, e)
	return e, nil
}

// DeleteByFamily 家庭端删除，不看状态
func (s *WasteService) DeleteByFamily(ctx context.Context, id int64) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, e, "family")
}

// DeleteIfRecycled 回收中心只能删已回收的记录
func (s *WasteService) DeleteIfRecycled(ctx context.Context, id int64) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != domain.StatusRecycled {
		return fmt.Errorf("%w: only recycled entries can be deleted", domain.ErrInvalidState)
	}
	return s.delete(ctx, e, "center")
}

func (s *WasteService) delete(ctx context.Context, e *domain.WasteEntry, workflow string) error {
	if err := s.repo.Delete(ctx, e.ID); err != nil {
		return fmt.Errorf("delete waste entry %d: %w", e.ID, err)
	}
	metrics.EntriesDeleted.WithLabelValues(workflow).Inc()
	s.record(ctx, e, nil)
	return nil
}

func (s *WasteService) ListAll(ctx context.Context) ([]domain.WasteEntry, error) {
	return s.repo.ListAll(ctx)
}

func (s *WasteService) ListByFamily(ctx context.Context, familyName string) ([]domain.WasteEntry, error) {
	return s.repo.ListByFamily(ctx, familyName)
}

func (s *WasteService) ListByStatus(ctx context.Context, status string) ([]domain.WasteEntry, error) {
	st, err := domain.ParseWasteStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByStatus(ctx, st)
}

func (s *WasteService) record(ctx context.Context, before, after *domain.WasteEntry) {
	if err := s.recorder.Record(ctx, before, after); err != nil {
		s.log.Warn("stats record failed", zap.Error(err))
	}
}

func (s *WasteService) notifyTransition(ctx context.Context, from domain.WasteStatus, e *domain.WasteEntry) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.StatusChange(ctx, e.FamilyName, e.WasteType, from.String(), e.Status.String()); err != nil {
		s.log.Warn("status notification failed", zap.Int64("id", e.ID), zap.Error(err))
	}
	if e.Status == domain.StatusRecycled {
		if _, err := s.notifier.RecyclingCompleted(ctx, e.FamilyName, e.WasteType, e.Quantity); err != nil {
			s.log.Warn("recycling notification failed", zap.Int64("id", e.ID), zap.Error(err))
		}
	}
}
