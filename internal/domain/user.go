package domain

import (
	"context"
	"fmt"
	"strings"
)

type Role string

const (
	RoleFamily Role = "FAMILY"
	RoleCenter Role = "CENTER"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(s))
	switch r {
	case RoleFamily, RoleCenter:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, s)
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // 经 Hasher 处理后的值，默认 plain 即明文
	Role     Role   `json:"role"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}
