package domain

import (
	"context"
	"time"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	Age          *int
	PasswordHash string
	APIKeyHash   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthMethod 当前请求身份的来源
type AuthMethod string

const (
	AuthMethodToken  AuthMethod = "token"
	AuthMethodAPIKey AuthMethod = "api_key"
)

type Principal struct {
	User *User
	Via  AuthMethod
}

// UserChanges 部分更新；nil 字段保持原值
type UserChanges struct {
	Name       *string
	Email      *string
	Age        *int
	APIKeyHash *string
	IsActive   *bool
}

func (c UserChanges) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Age == nil && c.APIKeyHash == nil && c.IsActive == nil
}

// Apply 把变更写到 u 上
func (c UserChanges) Apply(u *User) {
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Age != nil {
		age := *c.Age
		u.Age = &age
	}
	if c.APIKeyHash != nil {
		u.APIKeyHash = *c.APIKeyHash
	}
	if c.IsActive != nil {
		u.IsActive = *c.IsActive
	}
}

// UserStore 持久化抽象。查不到时返回 (nil, nil)；唯一冲突返回 ErrDuplicateEmail
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByAPIKeyHash(ctx context.Context, hash string) (*User, error)
	// List 只返回 active 用户，按 id 升序
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
	// Update 只写 ch 中出现的列，且只作用于 active 行；行不存在或已停用时返回 (nil, nil)
	Update(ctx context.Context, id int64, ch UserChanges) (*User, error)
}
