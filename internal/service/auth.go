package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gin-user-service/internal/core/auth"
	"gin-user-service/internal/domain"
)

type TokenIssuer interface {
	Issue(uid int64) (string, time.Time, error)
	Parse(token string) (*auth.Claims, error)
}

type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(pw, hashed string) bool
	DummyVerify(pw string)
}

type AuthOptions struct {
	// 凭证尝试顺序，默认 token → api_key
	CredentialOrder []domain.AuthMethod
	// 为 true 时停用用户仍能解析出身份，由 RequireActive 返回 403
	DistinguishInactive bool
	Now                 func() time.Time
}

type AuthService struct {
	store  domain.UserStore
	tokens TokenIssuer
	hasher PasswordHasher
	opts   AuthOptions
	log    *zap.Logger
}

func NewAuthService(store domain.UserStore, tokens TokenIssuer, hasher PasswordHasher, l *zap.Logger, opts AuthOptions) *AuthService {
	if len(opts.CredentialOrder) == 0 {
		opts.CredentialOrder = []domain.AuthMethod{domain.AuthMethodToken, domain.AuthMethodAPIKey}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &AuthService{store: store, tokens: tokens, hasher: hasher, opts: opts, log: l.Named("auth")}
}

// Credentials 请求里携带的原始凭证，空串表示未提供
type Credentials struct {
	BearerToken string
	APIKey      string
}

func (c Credentials) Empty() bool { return c.BearerToken == "" && c.APIKey == "" }

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64 // 秒
	ExpiresAt   time.Time
	User        *domain.User
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in, err := ValidateRegistration(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, wrapStore(s.log, "Failed to register user", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateEmail
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, wrapStore(s.log, "Failed to register user", err)
	}
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Age:          in.Age,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, wrapStore(s.log, "Failed to register user", err)
	}
	s.log.Info("user registered", zap.Int64("uid", u.ID))
	return u, nil
}

// Login 邮箱不存在、已停用、密码错误统一返回 ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.InvalidRequest("Email and password are required")
	}
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapStore(s.log, "Failed to login", err)
	}
	if u == nil || !u.IsActive {
		s.hasher.DummyVerify(password)
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	tok, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, wrapStore(s.log, "Failed to login", err)
	}
	return &LoginResult{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(exp.Sub(s.opts.Now()).Round(time.Second) / time.Second),
		ExpiresAt:   exp,
		User:        u,
	}, nil
}

// ResolveCurrentUser 按配置顺序尝试各凭证，第一个成功的生效
func (s *AuthService) ResolveCurrentUser(ctx context.Context, cred Credentials) (*domain.Principal, error) {
	if cred.Empty() {
		return nil, domain.Unauthenticated("Not authenticated")
	}
	for _, m := range s.opts.CredentialOrder {
		var (
			u   *domain.User
			err error
		)
		switch m {
		case domain.AuthMethodToken:
			if cred.BearerToken == "" {
				continue
			}
			u, err = s.userFromToken(ctx, cred.BearerToken)
		case domain.AuthMethodAPIKey:
			if cred.APIKey == "" {
				continue
			}
			u, err = s.store.FindByAPIKeyHash(ctx, auth.FingerprintAPIKey(cred.APIKey))
		default:
			continue
		}
		if err != nil {
			return nil, wrapStore(s.log, "Failed to resolve user", err)
		}
		if u == nil || (!u.IsActive && !s.opts.DistinguishInactive) {
			continue
		}
		return &domain.Principal{User: u, Via: m}, nil
	}
	return nil, domain.ErrUnauthenticated
}

func (s *AuthService) userFromToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if !errors.Is(err, auth.ErrExpiredToken) && !errors.Is(err, auth.ErrInvalidToken) {
			s.log.Warn("token parse", zap.Error(err))
		}
		return nil, nil
	}
	return s.store.FindByID(ctx, claims.UID)
}

func (s *AuthService) RequireActive(p *domain.Principal) (*domain.Principal, error) {
	if p == nil || p.User == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !p.User.IsActive {
		return nil, domain.ErrInactiveUser
	}
	return p, nil
}

// IssueAPIKey 只接受 token 登录的身份；新 key 覆盖旧 key，明文只返回这一次
func (s *AuthService) IssueAPIKey(ctx context.Context, p *domain.Principal) (string, error) {
	p, err := s.RequireActive(p)
	if err != nil {
		return "", err
	}
	if p.Via != domain.AuthMethodToken {
		return "", domain.Unauthenticated("Bearer token required")
	}
	key, err := auth.NewAPIKey()
	if err != nil {
		return "", wrapStore(s.log, "Failed to generate API key", err)
	}
	fp := auth.FingerprintAPIKey(key)
	u, err := s.store.Update(ctx, p.User.ID, domain.UserChanges{APIKeyHash: &fp})
	if err != nil {
		// 指纹冲突几乎不可能，不当作邮箱冲突
		return "", wrapStore(s.log, "Failed to generate API key", domain.Internal("update api key", err))
	}
	if u == nil {
		// 解析身份之后被停用
		return "", domain.ErrUnauthenticated
	}
	*p.User = *u
	s.log.Info("api key issued", zap.Int64("uid", u.ID))
	return key, nil
}

func (s *AuthService) Profile(p *domain.Principal) (*domain.User, error) {
	p, err := s.RequireActive(p)
	if err != nil {
		return nil, err
	}
	return p.User, nil
}
