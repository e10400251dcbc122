package auth

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"waste-recycling-tracker/internal/core/config"
)

// Area 路由组
type Area string

const (
	AreaFamily        Area = "family"
	AreaCenter        Area = "center"
	AreaStatistics    Area = "statistics"
	AreaNotifications Area = "notifications"
	AreaAdmin         Area = "admin"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Policy 在每个路由组入口判定；返回的 Claims 可能为 nil（allow_all）
type Policy interface {
	Authorize(r *http.Request, area Area) (*Claims, error)
}

// AllowAll 全部放行，保持旧系统行为
type AllowAll struct{}

func (AllowAll) Authorize(*http.Request, Area) (*Claims, error) { return nil, nil }

// JWTPolicy Bearer token + 区域角色表；区域未配置或列表为空时任意已登录用户可访问
type JWTPolicy struct {
	JWT   *JWTer
	Rules map[Area][]string
}

func (p *JWTPolicy) Authorize(r *http.Request, area Area) (*Claims, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	claims, err := p.JWT.Parse(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	roles := p.Rules[area]
	if len(roles) == 0 {
		return claims, nil
	}
	if !slices.ContainsFunc(roles, func(r string) bool { return strings.EqualFold(r, claims.Role) }) {
		return claims, fmt.Errorf("%w: role %s cannot access %s", ErrForbidden, claims.Role, area)
	}
	return claims, nil
}

// NewPolicy allow_all / jwt
func NewPolicy(c config.Auth, j *JWTer) (Policy, error) {
	switch strings.ToLower(c.Policy) {
	case "", "allow_all":
		return AllowAll{}, nil
	case "jwt":
		if j == nil {
			return nil, errors.New("jwt policy needs a signer")
		}
		rules := make(map[Area][]string, len(c.Rules))
		for k, v := range c.Rules {
			rules[Area(strings.ToLower(k))] = v
		}
		return &JWTPolicy{JWT: j, Rules: rules}, nil
	}
	return nil, fmt.Errorf("unknown auth policy %q", c.Policy)
}
