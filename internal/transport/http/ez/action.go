package ez

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/domain"
	resp "gin-user-service/internal/transport/http/response"
)

// EZ 路由组的轻封装，一行注册一个动作
type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// Paged 处理函数返回它时，响应里带 meta
type Paged struct {
	Data any
	Meta any
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/auth/login"、"/users/:id"
	Binder  Binder
	Status  int    // 成功状态码，默认 200
	Msg     string // 成功文案
	Use     []gin.HandlerFunc
	Handler func(c *gin.Context, in *I) (O, error)
}

func bindError(err error, b Binder) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	if b == BindQuery {
		return domain.InvalidRequest("Invalid query parameters")
	}
	return domain.InvalidRequest("Request body must be valid JSON")
}

// RegisterAction 绑定 → 执行 → 统一错误映射
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			resp.Abort(c, bindError(bindErr, a.Binder))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			resp.Abort(c, err)
			return
		}
		if p, ok := any(out).(Paged); ok {
			r := resp.Paged(p.Data, p.Meta)
			if a.Msg != "" {
				r.Msg = a.Msg
			}
			c.JSON(status, r)
			return
		}
		c.JSON(status, resp.Success(a.Msg, out))
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Use...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default: // 默认 POST
		e.g.POST(a.Path, handlers...)
	}
}

// ParamID 解析路径上的正整数 id
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidRequest("Invalid user id")
	}
	return id, nil
}
