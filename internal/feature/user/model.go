package user

import (
	"time"

	"gin-user-service/internal/domain"
)

// UserModel users 表；软删通过 is_active 实现，邮箱唯一索引覆盖 inactive 用户
type UserModel struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	Name         string  `gorm:"size:100;not null"`
	Email        string  `gorm:"uniqueIndex;size:191;not null"`
	Age          *int
	PasswordHash string  `gorm:"size:100;not null"`
	APIKeyHash   *string `gorm:"uniqueIndex;size:64"` // NULL 表示未签发
	IsActive     bool    `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func FromDomain(u *domain.User) *UserModel {
	m := &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Age:          u.Age,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.APIKeyHash != "" {
		h := u.APIKeyHash
		m.APIKeyHash = &h
	}
	return m
}

func (m *UserModel) ToDomain() *domain.User {
	u := &domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Age:          m.Age,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.APIKeyHash != nil {
		u.APIKeyHash = *m.APIKeyHash
	}
	return u
}

// Columns 部分更新的列 → 值；api_key_hash 为空串时写 NULL
func Columns(ch domain.UserChanges) map[string]any {
	cols := make(map[string]any, 5)
	if ch.Name != nil {
		cols["name"] = *ch.Name
	}
	if ch.Email != nil {
		cols["email"] = *ch.Email
	}
	if ch.Age != nil {
		cols["age"] = *ch.Age
	}
	if ch.APIKeyHash != nil {
		if *ch.APIKeyHash == "" {
			cols["api_key_hash"] = nil
		} else {
			cols["api_key_hash"] = *ch.APIKeyHash
		}
	}
	if ch.IsActive != nil {
		cols["is_active"] = *ch.IsActive
	}
	return cols
}
