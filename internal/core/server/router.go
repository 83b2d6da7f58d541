package server

import (
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	AllowOrigins []string         // 含 "*" 或为空时放行所有来源
	CORSMaxAge   time.Duration
	Recovery     gin.RecoveryFunc // panic 后写响应；为空时只回 500
}

func corsConfig(o Options) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        o.CORSMaxAge,
	}
	if len(o.AllowOrigins) == 0 || slices.Contains(o.AllowOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = o.AllowOrigins
	}
	return cfg
}

// NewRouter gin 基础引擎：panic 恢复（带堆栈写 zap）+ CORS
func NewRouter(l *zap.Logger, o Options) *gin.Engine {
	r := gin.New()
	rec := o.Recovery
	if rec == nil {
		rec = func(c *gin.Context, _ any) { c.AbortWithStatus(http.StatusInternalServerError) }
	}
	r.Use(ginzap.CustomRecoveryWithZap(l, true, rec))
	r.Use(cors.New(corsConfig(o)))
	return r
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration, errLog *log.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20, // 1MB
		ErrorLog:          errLog,
	}
}
