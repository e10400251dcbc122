package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/feature/waste"
)

var _ domain.WasteRepository = (*WasteRepo)(nil)

type WasteRepo struct{ db *gorm.DB }

func NewWasteRepo(db *gorm.DB) *WasteRepo { return &WasteRepo{db: db} }

func (r *WasteRepo) Create(ctx context.Context, e *domain.WasteEntry) error {
	m := toWasteModel(e)
	m.ID = 0 // 由数据库分配
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	e.ID = m.ID
	return nil
}

func (r *WasteRepo) FindByID(ctx context.Context, id int64) (*domain.WasteEntry, error) {
	var m waste.WasteModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e := fromWasteModel(m)
	return &e, nil
}

func (r *WasteRepo) ListAll(ctx context.Context) ([]domain.WasteEntry, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *WasteRepo) ListByFamily(ctx context.Context, familyName string) ([]domain.WasteEntry, error) {
	return r.find(r.db.WithContext(ctx).Where("family_name = ?", familyName))
}

func (r *WasteRepo) ListByStatus(ctx context.Context, status domain.WasteStatus) ([]domain.WasteEntry, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", string(status)))
}

// Save 覆盖可变列；id / created_at 不动。
// 不用 db.Save：影响行数为 0 时它会退化成 upsert，把刚被删掉的行又插回去
func (r *WasteRepo) Save(ctx context.Context, e *domain.WasteEntry) error {
	return r.db.WithContext(ctx).Model(&waste.WasteModel{}).Where("id = ?", e.ID).Updates(map[string]any{
		"family_name": e.FamilyName,
		"waste_type":  e.WasteType,
		"quantity":    e.Quantity,
		"status":      string(e.Status),
	}).Error
}

func (r *WasteRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&waste.WasteModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *WasteRepo) find(q *gorm.DB) ([]domain.WasteEntry, error) {
	var ms []waste.WasteModel
	if err := q.Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.WasteEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, fromWasteModel(m))
	}
	return out, nil
}

func toWasteModel(e *domain.WasteEntry) waste.WasteModel {
	return waste.WasteModel{
		ID:         e.ID,
		FamilyName: e.FamilyName,
		WasteType:  e.WasteType,
		Quantity:   e.Quantity,
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
	}
}

func fromWasteModel(m waste.WasteModel) domain.WasteEntry {
	return domain.WasteEntry{
		ID:         m.ID,
		FamilyName: m.FamilyName,
		WasteType:  m.WasteType,
		Quantity:   m.Quantity,
		Status:     domain.WasteStatus(m.Status),
		CreatedAt:  m.CreatedAt,
	}
}
