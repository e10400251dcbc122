package domain

import "errors"

// 业务错误分类；service 层用 %w 包装，transport 层用 errors.Is 映射 HTTP 状态
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrAlreadyExists   = errors.New("already exists")
)
