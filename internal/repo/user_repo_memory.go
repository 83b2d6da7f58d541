package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"gin-user-service/internal/domain"
)

// MemoryUserRepo 进程内实现（db.driver=memory 与测试使用），约束与数据库唯一索引一致
type MemoryUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.User
	now    func() time.Time
}

var _ domain.UserStore = (*MemoryUserRepo)(nil)

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byID: map[int64]*domain.User{}, now: time.Now}
}

func clone(u *domain.User) *domain.User {
	c := *u
	if u.Age != nil {
		a := *u.Age
		c.Age = &a
	}
	return &c
}

// conflict 调用方需持有锁
func (r *MemoryUserRepo) conflict(u *domain.User) bool {
	for id, other := range r.byID {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return true
		}
		if u.APIKeyHash != "" && other.APIKeyHash == u.APIKeyHash {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.ID = 0
	if r.conflict(u) {
		return domain.ErrDuplicateEmail
	}
	r.nextID++
	now := r.now()
	u.ID = r.nextID
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = clone(u)
	return nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindByAPIKeyHash(_ context.Context, hash string) (*domain.User, error) {
	if hash == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.APIKeyHash == hash {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepo) List(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.byID))
	for id, u := range r.byID {
		if u.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := int64(len(ids))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return []domain.User{}, total, nil
	}
	end := len(ids)
	if limit < end-offset {
		end = offset + limit
	}
	out := make([]domain.User, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, *clone(r.byID[id]))
	}
	return out, total, nil
}

func (r *MemoryUserRepo) Update(_ context.Context, id int64, ch domain.UserChanges) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok || !cur.IsActive {
		return nil, nil
	}
	next := clone(cur)
	ch.Apply(next)
	if r.conflict(next) {
		return nil, domain.ErrDuplicateEmail
	}
	next.UpdatedAt = r.now()
	r.byID[id] = next
	return clone(next), nil
}
