package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"waste-recycling-tracker/internal/core/auth"
	"waste-recycling-tracker/internal/service"
	"waste-recycling-tracker/internal/transport/http/ez"
)

type AuthHandler struct {
	users *service.UserService
	jwt   *auth.JWTer
}

func NewAuthHandler(users *service.UserService, jwt *auth.JWTer) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type loginIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Mount /api/auth
func (h *AuthHandler) Mount(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			u, err := h.users.Authenticate(c.Request.Context(), in.Username, in.Password)
			if errors.Is(err, service.ErrBadCredentials) {
				return loginOut{}, ez.Unauthorized(err.Error())
			}
			if err != nil {
				return loginOut{}, err
			}
			tok, err := h.jwt.Issue(strconv.FormatInt(u.ID, 10), u.Username, string(u.Role))
			if err != nil {
				return loginOut{}, ez.Internal("issue token failed", err)
			}
			return loginOut{Token: tok, Username: u.Username, Role: string(u.Role)}, nil
		},
	})
}
