package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type WasteStatus string

const (
	StatusPending    WasteStatus = "PENDING"
	StatusProcessing WasteStatus = "PROCESSING"
	StatusRecycled   WasteStatus = "RECYCLED"
)

// AllStatuses 按生命周期顺序
var AllStatuses = []WasteStatus{StatusPending, StatusProcessing, StatusRecycled}

// ParseWasteStatus 大小写不敏感；未知值返回 ErrInvalidArgument
func ParseWasteStatus(s string) (WasteStatus, error) {
	st := WasteStatus(strings.ToUpper(s))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
	}
	return st, nil
}

func (s WasteStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusRecycled:
		return true
	}
	return false
}

func (s WasteStatus) String() string { return string(s) }

// WasteEntry 一户家庭提交的一条垃圾记录
type WasteEntry struct {
	ID         int64       `json:"id"`
	FamilyName string      `json:"familyName"`
	WasteType  string      `json:"wasteType"`
	Quantity   float64     `json:"quantity"` // kg
	Status     WasteStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// WasteRepository 由存储层实现；Find 查不到返回 (nil, nil)
type WasteRepository interface {
	Create(ctx context.Context, e *WasteEntry) error
	FindByID(ctx context.Context, id int64) (*WasteEntry, error)
	ListAll(ctx context.Context) ([]WasteEntry, error)
	ListByFamily(ctx context.Context, familyName string) ([]WasteEntry, error)
	ListByStatus(ctx context.Context, status WasteStatus) ([]WasteEntry, error)
	Save(ctx context.Context, e *WasteEntry) error
	Delete(ctx context.Context, id int64) error
}
