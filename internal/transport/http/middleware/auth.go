package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/domain"
	"gin-user-service/internal/service"
	resp "gin-user-service/internal/transport/http/response"
)

const (
	KeyPrincipal = "principal"
	HeaderAPIKey = "X-API-Key"
)

// Resolver 由 service.AuthService 实现
type Resolver interface {
	ResolveCurrentUser(ctx context.Context, cred service.Credentials) (*domain.Principal, error)
	RequireActive(p *domain.Principal) (*domain.Principal, error)
}

// CredentialsFrom 取 Authorization: Bearer 与 X-API-Key
func CredentialsFrom(c *gin.Context) service.Credentials {
	var cred service.Credentials
	if ah := strings.TrimSpace(c.GetHeader("Authorization")); len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		cred.BearerToken = strings.TrimSpace(ah[7:])
	}
	cred.APIKey = strings.TrimSpace(c.GetHeader(HeaderAPIKey))
	return cred
}

// AuthRequired 解析身份并要求用户处于激活状态
func AuthRequired(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := r.ResolveCurrentUser(c.Request.Context(), CredentialsFrom(c))
		if err == nil {
			p, err = r.RequireActive(p)
		}
		if err != nil {
			authFailures.WithLabelValues(string(domain.KindOf(err))).Inc()
			resp.Abort(c, err)
			return
		}
		c.Set(KeyPrincipal, p)
		c.Next()
	}
}

// AuthOptional 有合法凭证就带上身份，否则按匿名继续
func AuthOptional(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := CredentialsFrom(c)
		if !cred.Empty() {
			p, err := r.ResolveCurrentUser(c.Request.Context(), cred)
			if err == nil {
				p, err = r.RequireActive(p)
			}
			switch {
			case err == nil:
				c.Set(KeyPrincipal, p)
			case domain.KindOf(err) == domain.KindInternal:
				_ = c.Error(err)
			}
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) *domain.Principal {
	if v, ok := c.Get(KeyPrincipal); ok {
		if p, ok := v.(*domain.Principal); ok {
			return p
		}
	}
	return nil
}
