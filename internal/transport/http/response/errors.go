package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/domain"
)

// StatusOf 错误类别 → HTTP 状态
func StatusOf(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindDuplicateEmail:
		return http.StatusConflict
	case domain.KindInvalidCredentials, domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindInactiveUser, domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Abort 写错误响应并中断；5xx 的原始错误挂到 c.Errors 交给访问日志，不回给客户端
func Abort(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
			Fail(CodeEntityTooLarge, string(domain.KindInvalidRequest), "", nil))
		return
	}

	e, ok := domain.AsError(err)
	if !ok {
		e = &domain.Error{Kind: domain.KindInternal, Msg: domain.ErrInternal.Msg, Err: err}
	}
	status := StatusOf(e.Kind)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if e.Kind == domain.KindUnauthenticated {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, Fail(status, string(e.Kind), e.Msg, e.Details))
}
