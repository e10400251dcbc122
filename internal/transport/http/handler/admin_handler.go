package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/service"
	"waste-recycling-tracker/internal/transport/http/ez"
)

// StatsRebuilder redis 模式下的计数器；scan 模式为 nil
type StatsRebuilder interface {
	Rebuild(ctx context.Context, entries []domain.WasteEntry) error
}

type AdminHandler struct {
	users     *service.UserService
	waste     *service.WasteService
	rebuilder StatsRebuilder
}

func NewAdminHandler(users *service.UserService, waste *service.WasteService, rebuilder StatsRebuilder) *AdminHandler {
	return &AdminHandler{users: users, waste: waste, rebuilder: rebuilder}
}

type userCreateIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// userUpdateIn 不传或 null 表示不修改
type userUpdateIn struct {
	idURI
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type rebuildOut struct {
	Mode    string `json:"mode"`
	Entries int    `json:"entries"`
	Rebuilt bool   `json:"rebuilt"`
}

// Mount /api/admin
func (h *AdminHandler) Mount(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[none, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) ([]domain.User, error) {
			return h.users.List(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[userCreateIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *userCreateIn) (*domain.User, error) {
			return h.users.Create(c.Request.Context(), in.Username, in.Password, in.Role)
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindURI,
		Handler: func(c *gin.Context, in *idURI) (*domain.User, error) {
			return h.users.Get(c.Request.Context(), in.ID)
		},
	})

	ez.RegisterAction(e, ez.Action[userUpdateIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: ez.BindURIJSON,
		Handler: func(c *gin.Context, in *userUpdateIn) (*domain.User, error) {
			return h.users.Update(c.Request.Context(), in.ID, in.Password, in.Role)
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, none]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindURI,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, in *idURI) (none, error) {
			return none{}, h.users.Delete(c.Request.Context(), in.ID)
		},
	})

	for path, role := range map[string]domain.Role{
		"/users/families/list": domain.RoleFamily,
		"/users/centers/list":  domain.RoleCenter,
	} {
		ez.RegisterAction(e, ez.Action[none, []domain.User]{
			Method: http.MethodGet,
			Path:   path,
			Binder: ez.BindNone,
			Handler: func(c *gin.Context, _ *none) ([]domain.User, error) {
				return h.users.ListByRole(c.Request.Context(), role)
			},
		})
	}

	ez.RegisterAction(e, ez.Action[none, rebuildOut]{
		Method:  http.MethodPost,
		Path:    "/stats/rebuild",
		Binder:  ez.BindNone,
		Handler: h.rebuildStats,
	})
}

func (h *AdminHandler) rebuildStats(c *gin.Context, _ *none) (rebuildOut, error) {
	if h.rebuilder == nil {
		return rebuildOut{Mode: "scan"}, nil
	}
	entries, err := h.waste.ListAll(c.Request.Context())
	if err != nil {
		return rebuildOut{}, err
	}
	if err := h.rebuilder.Rebuild(c.Request.Context(), entries); err != nil {
		return rebuildOut{}, ez.Internal("rebuild statistics failed", err)
	}
	return rebuildOut{Mode: "redis", Entries: len(entries), Rebuilt: true}, nil
}
