package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/feature/user"
)

var _ domain.UserRepository = (*UserRepo)(nil)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	u.ID = m.ID
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx).Where("username = ?", username))
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *UserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.find(r.db.WithContext(ctx).Where("role = ?", string(role)))
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Model(&user.UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"password": u.Password,
		"role":     string(u.Role),
	}).Error
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.UserModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) first(q *gorm.DB) (*domain.User, error) {
	var m user.UserModel
	err := q.First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := fromUserModel(m)
	return &u, nil
}

func (r *UserRepo) find(q *gorm.DB) ([]domain.User, error) {
	var ms []user.UserModel
	if err := q.Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(ms))
	for _, m := range ms {
		out = append(out, fromUserModel(m))
	}
	return out, nil
}

func toUserModel(u *domain.User) user.UserModel {
	return user.UserModel{ID: u.ID, Username: u.Username, Password: u.Password, Role: string(u.Role)}
}

func fromUserModel(m user.UserModel) domain.User {
	return domain.User{ID: m.ID, Username: m.Username, Password: m.Password, Role: domain.Role(m.Role)}
}
