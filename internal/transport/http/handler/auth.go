package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/service"
	httpez "gin-user-service/internal/transport/http/ez"
	mdw "gin-user-service/internal/transport/http/middleware"
)

type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

func NewAuthHandler(a *service.AuthService, u *service.UserService) *AuthHandler {
	return &AuthHandler{auth: a, users: u}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginOut struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
	User        UserDTO `json:"user"`
}

type apiKeyOut struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message"`
}

// Mount 挂载 /auth/*
func (h *AuthHandler) Mount(g *gin.RouterGroup) {
	ez := httpez.New(g.Group("/auth"))
	required := mdw.AuthRequired(h.auth)

	httpez.RegisterAction(ez, httpez.Action[service.RegisterInput, UserDTO]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Msg:    "User registered successfully",
		Handler: func(c *gin.Context, in *service.RegisterInput) (UserDTO, error) {
			u, err := h.auth.Register(c.Request.Context(), *in)
			if err != nil {
				return UserDTO{}, err
			}
			return ToUserDTO(u), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: httpez.BindJSON,
		Msg:    "Login successful",
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			res, err := h.auth.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			return loginOut{
				AccessToken: res.AccessToken,
				TokenType:   res.TokenType,
				ExpiresIn:   res.ExpiresIn,
				User:        ToUserDTO(res.User),
			}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, apiKeyOut]{
		Method: http.MethodPost,
		Path:   "/api-key",
		Binder: httpez.BindNone,
		Msg:    "API key generated successfully",
		Use:    []gin.HandlerFunc{required},
		Handler: func(c *gin.Context, _ *struct{}) (apiKeyOut, error) {
			key, err := h.auth.IssueAPIKey(c.Request.Context(), mdw.CurrentPrincipal(c))
			if err != nil {
				return apiKeyOut{}, err
			}
			return apiKeyOut{APIKey: key, Message: "Use this key in X-API-Key header for authentication"}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, UserDTO]{
		Method: http.MethodGet,
		Path:   "/profile",
		Binder: httpez.BindNone,
		Use:    []gin.HandlerFunc{required},
		Handler: func(c *gin.Context, _ *struct{}) (UserDTO, error) {
			u, err := h.auth.Profile(mdw.CurrentPrincipal(c))
			if err != nil {
				return UserDTO{}, err
			}
			return ToUserDTO(u), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UpdateInput, UserDTO]{
		Method: http.MethodPut,
		Path:   "/profile",
		Binder: httpez.BindJSON,
		Msg:    "Profile updated successfully",
		Use:    []gin.HandlerFunc{required},
		Handler: func(c *gin.Context, in *service.UpdateInput) (UserDTO, error) {
			p := mdw.CurrentPrincipal(c)
			u, err := h.users.Update(c.Request.Context(), p, p.User.ID, *in)
			if err != nil {
				return UserDTO{}, err
			}
			return ToUserDTO(u), nil
		},
	})
}
