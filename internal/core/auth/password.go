package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher bcrypt 封装；Cost 为 0 时使用 bcrypt.DefaultCost
type Hasher struct {
	Cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

func (h *Hasher) cost() int {
	if h.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

// Hash 空密码也会得到合法摘要；超过 72 字节返回 bcrypt.ErrPasswordTooLong
func (h *Hasher) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.cost())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *Hasher) Verify(pw, hashed string) bool {
	if hashed == "" {
		h.DummyVerify(pw)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// DummyVerify 用户不存在时也跑一次比较，让失败路径耗时一致
func (h *Hasher) DummyVerify(pw string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), h.cost())
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(pw))
}
