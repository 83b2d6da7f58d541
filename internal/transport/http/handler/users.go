package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/service"
	httpez "gin-user-service/internal/transport/http/ez"
	mdw "gin-user-service/internal/transport/http/middleware"
)

type UsersHandler struct {
	users      *service.UserService
	resolver   mdw.Resolver
	publicRead bool // false 时列表/详情也要求登录
}

func NewUsersHandler(u *service.UserService, r mdw.Resolver, publicRead bool) *UsersHandler {
	return &UsersHandler{users: u, resolver: r, publicRead: publicRead}
}

func (h *UsersHandler) Priority() int { return 20 }

type listQuery struct {
	Page    *int `form:"page"`
	PerPage *int `form:"per_page"`
}

type deleteOut struct {
	ID int64 `json:"id"`
}

// Mount 挂载 /users 资源
func (h *UsersHandler) Mount(g *gin.RouterGroup) {
	ez := httpez.New(g.Group("/users"))
	required := mdw.AuthRequired(h.resolver)
	read := mdw.AuthOptional(h.resolver)
	if !h.publicRead {
		read = required
	}

	httpez.RegisterAction(ez, httpez.Action[listQuery, httpez.Paged]{
		Method: http.MethodGet,
		Path:   "",
		Binder: httpez.BindQuery,
		Use:    []gin.HandlerFunc{read},
		Handler: func(c *gin.Context, q *listQuery) (httpez.Paged, error) {
			req := service.PageRequest{Page: 1, PerPage: service.DefaultPerPage}
			if q.Page != nil {
				req.Page = *q.Page
			}
			if q.PerPage != nil {
				req.PerPage = *q.PerPage
			}
			page, err := h.users.List(c.Request.Context(), mdw.CurrentPrincipal(c), req)
			if err != nil {
				return httpez.Paged{}, err
			}
			return httpez.Paged{Data: ToUserDTOs(page.Items), Meta: page.Meta}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.CreateInput, UserDTO]{
		Method: http.MethodPost,
		Path:   "",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Msg:    "User created successfully",
		Handler: func(c *gin.Context, in *service.CreateInput) (UserDTO, error) {
			u, err := h.users.Create(c.Request.Context(), *in)
			if err != nil {
				return UserDTO{}, err
			}
			return ToUserDTO(u), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, UserDTO]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: httpez.BindNone,
		Use:    []gin.HandlerFunc{read},
		Handler: func(c *gin.Context, _ *struct{}) (UserDTO, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return UserDTO{}, err
			}
			u, err := h.users.Get(c.Request.Context(), id)
			if err != nil {
				return UserDTO{}, err
			}
			return ToUserDTO(u), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UpdateInput, UserDTO]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: httpez.BindJSON,
		Msg:    "User updated successfully",
		Use:    []gin.HandlerFunc{required},
		Handler: func(c *gin.Context, in *service.UpdateInput) (UserDTO, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return UserDTO{}, err
			}
			u, err := h.users.Update(c.Request.Context(), mdw.CurrentPrincipal(c), id, *in)
			if err != nil {
				return UserDTO{}, err
			}
			return ToUserDTO(u), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, deleteOut]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: httpez.BindNone,
		Msg:    "User deleted successfully",
		Use:    []gin.HandlerFunc{required},
		Handler: func(c *gin.Context, _ *struct{}) (deleteOut, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return deleteOut{}, err
			}
			id, err = h.users.Delete(c.Request.Context(), mdw.CurrentPrincipal(c), id)
			if err != nil {
				return deleteOut{}, err
			}
			return deleteOut{ID: id}, nil
		},
	})
}
