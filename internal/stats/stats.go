package stats

import (
	"context"

	"waste-recycling-tracker/internal/domain"
)

// Aggregator 统计读接口；scan 与 redis 两种实现返回同样的结构
type Aggregator interface {
	Global(ctx context.Context) (*domain.Statistics, error)
	Family(ctx context.Context, familyName string) (*domain.Statistics, error)
}

// Recorder 生命周期写入后的钩子；before 为 nil 表示新建，after 为 nil 表示删除
type Recorder interface {
	Record(ctx context.Context, before, after *domain.WasteEntry) error
}

// Discard scan 模式下不需要记账
type Discard struct{}

func (Discard) Record(context.Context, *domain.WasteEntry, *domain.WasteEntry) error { return nil }

// Scanner 每次读都全量扫描
type Scanner struct {
	repo domain.WasteRepository
}

func NewScanner(repo domain.WasteRepository) *Scanner { return &Scanner{repo: repo} }

func (s *Scanner) Global(ctx context.Context) (*domain.Statistics, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return Compute(entries, false), nil
}

func (s *Scanner) Family(ctx context.Context, familyName string) (*domain.Statistics, error) {
	entries, err := s.repo.ListByFamily(ctx, familyName)
	if err != nil {
		return nil, err
	}
	return Compute(entries, true), nil
}
