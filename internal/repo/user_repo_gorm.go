package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gin-user-service/internal/domain"
	"gin-user-service/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

var _ domain.UserStore = (*UserRepo)(nil)

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err)
	}
	*u = *m.ToDomain()
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepo) FindByAPIKeyHash(ctx context.Context, hash string) (*domain.User, error) {
	if hash == "" {
		return nil, nil
	}
	return r.first(ctx, "api_key_hash = ?", hash)
}

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	active := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&user.UserModel{}).Where("is_active = ?", true)
	}
	var total int64
	if err := active().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ms []user.UserModel
	if err := active().Order("id asc").Offset(offset).Limit(limit).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	users := make([]domain.User, 0, len(ms))
	for i := range ms {
		users = append(users, *ms[i].ToDomain())
	}
	return users, total, nil
}

// Update 条件更新（id + is_active），只写变更列；同一事务内回读结果
func (r *UserRepo) Update(ctx context.Context, id int64, ch domain.UserChanges) (*domain.User, error) {
	cols := user.Columns(ch)
	if len(cols) == 0 {
		u, err := r.FindByID(ctx, id)
		if err != nil || u == nil || !u.IsActive {
			return nil, err
		}
		return u, nil
	}

	var out *domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&user.UserModel{}).
			Where("id = ? AND is_active = ?", id, true).
			Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		var m user.UserModel
		err := tx.Where("id = ?", id).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		// MySQL 对值未变化的行报告 0 行；此时仍为 active 说明条件命中
		if res.RowsAffected == 0 && !m.IsActive {
			return nil
		}
		out = m.ToDomain()
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDupKey(err) {
		return domain.ErrDuplicateEmail
	}
	return err
}

func isDupKey(err error) bool {
	// 驱动未开启 TranslateError 时兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
