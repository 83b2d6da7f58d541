package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/domain"
	httpez "gin-user-service/internal/transport/http/ez"
	mdw "gin-user-service/internal/transport/http/middleware"
	resp "gin-user-service/internal/transport/http/response"
)

type GeneralHandler struct {
	service  string
	resolver mdw.Resolver
	ping     func(ctx context.Context) error // 可选，健康检查时探测存储
	now      func() time.Time
}

func NewGeneralHandler(service string, r mdw.Resolver, ping func(ctx context.Context) error) *GeneralHandler {
	return &GeneralHandler{service: service, resolver: r, ping: ping, now: time.Now}
}

func (h *GeneralHandler) Priority() int { return 0 }

type userInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type protectedOut struct {
	Message     string   `json:"message"`
	Status      string   `json:"status"`
	UserInfo    userInfo `json:"user_info"`
	AuthMethod  string   `json:"auth_method"`
	Description string   `json:"description"`
}

func (h *GeneralHandler) Mount(g *gin.RouterGroup) {
	g.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(gin.H{
			"message":   "Welcome to " + h.service,
			"timestamp": h.now().UTC(),
			"endpoints": gin.H{
				"auth": gin.H{
					"register":         "POST /auth/register",
					"login":            "POST /auth/login",
					"generate_api_key": "POST /auth/api-key",
					"profile":          "GET|PUT /auth/profile",
				},
				"users": gin.H{
					"list":   "GET /users",
					"create": "POST /users",
					"get":    "GET /users/:id",
					"update": "PUT /users/:id",
					"delete": "DELETE /users/:id",
				},
				"welcome":   "GET /welcome",
				"protected": "GET /protected",
				"health":    "GET /health",
				"metrics":   "GET /metrics",
			},
		}))
	})

	g.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "healthy", "service": h.service, "timestamp": h.now().UTC()}
		if h.ping != nil {
			if err := h.ping(c.Request.Context()); err != nil {
				_ = c.Error(err)
				body["status"] = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, resp.New(resp.CodeUnavailable, "storage unreachable", body))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(body))
	})

	g.GET("/welcome", func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(gin.H{
			"message":     "Welcome to " + h.service + "!",
			"status":      "public",
			"description": "This endpoint is accessible without authentication",
		}))
	})

	ez := httpez.New(g)
	httpez.RegisterAction(ez, httpez.Action[struct{}, protectedOut]{
		Method: http.MethodGet,
		Path:   "/protected",
		Binder: httpez.BindNone,
		Use:    []gin.HandlerFunc{mdw.AuthRequired(h.resolver)},
		Handler: func(c *gin.Context, _ *struct{}) (protectedOut, error) {
			p := mdw.CurrentPrincipal(c)
			if p == nil {
				return protectedOut{}, domain.ErrUnauthenticated
			}
			u := p.User
			return protectedOut{
				Message:     fmt.Sprintf("Hello %s! This is a protected route.", u.Name),
				Status:      "protected",
				UserInfo:    userInfo{ID: u.ID, Name: u.Name, Email: u.Email, IsActive: u.IsActive},
				AuthMethod:  string(p.Via),
				Description: "This endpoint requires a valid bearer token or API key",
			}, nil
		},
	})
}
