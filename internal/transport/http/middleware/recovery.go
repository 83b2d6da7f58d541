package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/domain"
	resp "gin-user-service/internal/transport/http/response"
)

// RecoveryHandler 作为 ginzap.CustomRecoveryWithZap 的回调；堆栈已由 ginzap 记录
func RecoveryHandler(c *gin.Context, _ any) {
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		resp.Fail(resp.CodeServerError, string(domain.KindInternal), domain.ErrInternal.Msg, nil))
}
