package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gin-user-service/internal/core/config"
	"gin-user-service/internal/core/server"
	"gin-user-service/internal/domain"
	"gin-user-service/internal/service"
	"gin-user-service/internal/transport/http/handler"
	mdw "gin-user-service/internal/transport/http/middleware"
	resp "gin-user-service/internal/transport/http/response"
)

type Deps struct {
	Log   *zap.Logger
	Cfg   *config.Config
	Auth  *service.AuthService
	Users *service.UserService
	Ping  func(ctx context.Context) error // 可选
}

func NewAPIEngine(d Deps) *gin.Engine {
	h := d.Cfg.App.HTTP
	r := server.NewRouter(d.Log, server.Options{
		AllowOrigins: d.Cfg.CORS.AllowOrigins,
		CORSMaxAge:   time.Duration(d.Cfg.CORS.MaxAgeHours) * time.Hour,
		Recovery:     mdw.RecoveryHandler,
	})

	// 中间件；限流类按配置开关
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(d.Log),
		mdw.Metrics(),
	)
	if h.RateLimitRPS > 0 {
		r.Use(mdw.RateLimitPerIP(rate.Limit(h.RateLimitRPS), max(1, h.RateLimitBurst)))
	}
	if h.MaxInFlight > 0 {
		r.Use(mdw.ConcurrencyLimit(h.MaxInFlight))
	}
	if h.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(h.MaxBodyBytes))
	}
	if h.RequestTimeoutMs > 0 {
		r.Use(mdw.Timeout(time.Duration(h.RequestTimeoutMs) * time.Millisecond))
	}

	r.GET("/metrics", mdw.MetricsHandler())

	MountAll(&r.RouterGroup,
		handler.NewGeneralHandler(d.Cfg.App.Name, d.Auth, d.Ping),
		handler.NewAuthHandler(d.Auth, d.Users),
		handler.NewUsersHandler(d.Users, d.Auth, d.Cfg.Auth.PublicRead),
	)

	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		resp.Abort(c, domain.NotFound("The requested resource was not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed,
			resp.Fail(http.StatusMethodNotAllowed, string(domain.KindInvalidRequest), "Method not allowed", nil))
	})
	return r
}
