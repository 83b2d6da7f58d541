package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"gin-user-service/internal/domain"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

type PageRequest struct {
	Page    int
	PerPage int
}

type PageMeta struct {
	Page          int   `json:"page"`
	PerPage       int   `json:"per_page"`
	Total         int64 `json:"total"`
	Pages         int   `json:"pages"`
	HasNext       bool  `json:"has_next"`
	HasPrev       bool  `json:"has_prev"`
	NextPage      *int  `json:"next_page"`
	PrevPage      *int  `json:"prev_page"`
	Authenticated bool  `json:"authenticated"`
}

type Page struct {
	Items []domain.User
	Meta  PageMeta
}

type UserService struct {
	store  domain.UserStore
	hasher PasswordHasher
	log    *zap.Logger
}

func NewUserService(store domain.UserStore, hasher PasswordHasher, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{store: store, hasher: hasher, log: l.Named("users")}
}

// List 只列 active 用户；requester 可为 nil（匿名）
func (s *UserService) List(ctx context.Context, requester *domain.Principal, req PageRequest) (*Page, error) {
	if req.Page < 1 {
		return nil, domain.InvalidRequest("Page must be greater than 0")
	}
	if req.PerPage < 1 || req.PerPage > MaxPerPage {
		return nil, domain.InvalidRequest("Per page must be between 1 and 100")
	}

	items, total, err := s.store.List(ctx, pageOffset(req), req.PerPage)
	if err != nil {
		return nil, wrapStore(s.log, "Failed to retrieve users", err)
	}

	pages := int((total + int64(req.PerPage) - 1) / int64(req.PerPage))
	meta := PageMeta{
		Page:          req.Page,
		PerPage:       req.PerPage,
		Total:         total,
		Pages:         pages,
		HasNext:       req.Page < pages,
		HasPrev:       req.Page > 1,
		Authenticated: requester != nil,
	}
	if meta.HasNext {
		n := req.Page + 1
		meta.NextPage = &n
	}
	if meta.HasPrev {
		p := req.Page - 1
		meta.PrevPage = &p
	}
	return &Page{Items: items, Meta: meta}, nil
}

// pageOffset 溢出时钳到 MaxInt，store 视为越界返回空页
func pageOffset(req PageRequest) int {
	if req.Page-1 > math.MaxInt/req.PerPage {
		return math.MaxInt
	}
	return (req.Page - 1) * req.PerPage
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.active(ctx, id, "Failed to retrieve user")
}

func (s *UserService) active(ctx context.Context, id int64, failMsg string) (*domain.User, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStore(s.log, failMsg, err)
	}
	if u == nil || !u.IsActive {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// Create 不要求密码；未给密码的用户无法登录
func (s *UserService) Create(ctx context.Context, in CreateInput) (*domain.User, error) {
	in, err := ValidateCreate(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, wrapStore(s.log, "Failed to create user", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateEmail
	}

	u := &domain.User{Name: in.Name, Email: in.Email, Age: in.Age, IsActive: true}
	if in.Password != nil {
		if u.PasswordHash, err = s.hasher.Hash(*in.Password); err != nil {
			return nil, wrapStore(s.log, "Failed to create user", err)
		}
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, wrapStore(s.log, "Failed to create user", err)
	}
	return u, nil
}

func checkOwner(requester *domain.Principal, id int64, action string) error {
	if requester == nil || requester.User == nil {
		return domain.ErrUnauthenticated
	}
	if requester.User.ID != id {
		return domain.Forbidden("You can only " + action + " your own account")
	}
	return nil
}

// Update 顺序：归属 → 非空 → 校验 → 存在 → 邮箱唯一
func (s *UserService) Update(ctx context.Context, requester *domain.Principal, id int64, in UpdateInput) (*domain.User, error) {
	if err := checkOwner(requester, id, "update"); err != nil {
		return nil, err
	}
	if in.Empty() {
		return nil, domain.InvalidRequest("No fields to update")
	}
	in, err := ValidateUpdate(in)
	if err != nil {
		return nil, err
	}
	u, err := s.active(ctx, id, "Failed to update user")
	if err != nil {
		return nil, err
	}

	var ch domain.UserChanges
	if in.Email.Present() && in.Email.Value != u.Email {
		other, err := s.store.FindByEmail(ctx, in.Email.Value)
		if err != nil {
			return nil, wrapStore(s.log, "Failed to update user", err)
		}
		if other != nil {
			return nil, domain.ErrDuplicateEmail
		}
		ch.Email = &in.Email.Value
	}
	if in.Name.Present() {
		ch.Name = &in.Name.Value
	}
	if in.Age.Present() {
		ch.Age = &in.Age.Value
	}

	// 只写变更列且要求行仍为 active；并发删除后这里得到 nil。邮箱竞争由唯一索引兜底
	updated, err := s.store.Update(ctx, id, ch)
	if err != nil {
		return nil, wrapStore(s.log, "Failed to update user", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}
	return updated, nil
}

// Delete 软删除，邮箱保持占用
func (s *UserService) Delete(ctx context.Context, requester *domain.Principal, id int64) (int64, error) {
	if err := checkOwner(requester, id, "delete"); err != nil {
		return 0, err
	}
	inactive := false
	u, err := s.store.Update(ctx, id, domain.UserChanges{IsActive: &inactive})
	if err != nil {
		return 0, wrapStore(s.log, "Failed to delete user", err)
	}
	if u == nil {
		return 0, domain.ErrNotFound
	}
	s.log.Info("user deactivated", zap.Int64("uid", id))
	return id, nil
}
