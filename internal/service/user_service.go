package service

import (
	"context"
	"errors"
	"fmt"

	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/pkg/utils"
)

var ErrBadCredentials = errors.New("invalid username or password")

type UserService struct {
	repo   domain.UserRepository
	hasher utils.Hasher
}

func NewUserService(repo domain.UserRepository, hasher utils.Hasher) *UserService {
	if hasher == nil {
		hasher = utils.PlainHasher{}
	}
	return &UserService{repo: repo, hasher: hasher}
}

func (s *UserService) Create(ctx context.Context, username, password, role string) (*domain.User, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user %s", domain.ErrAlreadyExists, username)
	}
	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Username: username, Password: hashed, Role: r}
	if err := s.repo.Create(ctx, u); err != nil {
		// 唯一索引兜底并发创建
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrAlreadyExists, username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) hash(pw string) (string, error) {
	hashed, err := s.hasher.Hash(pw)
	if errors.Is(err, utils.ErrPasswordRejected) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hashed, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return s.repo.ListByRole(ctx, role)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return u, nil
}

// Update password 为 nil 或空串、role 为 nil 时保持原值
func (s *UserService) Update(ctx context.Context, id int64, password, role *string) (*domain.User, error) {
	var newRole domain.Role
	if role != nil {
		r, err := domain.ParseRole(*role)
		if err != nil {
			return nil, err
		}
		newRole = r
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if password != nil && *password != "" {
		hashed, err := s.hash(*password)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}
	if role != nil {
		u.Role = newRole
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// Authenticate 用户不存在和密码错误返回同一个错误
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	if u == nil || !s.hasher.Verify(password, u.Password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}
