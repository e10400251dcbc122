package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/service"
	"waste-recycling-tracker/internal/transport/http/ez"
)

type WasteHandler struct {
	svc *service.WasteService
}

func NewWasteHandler(svc *service.WasteService) *WasteHandler { return &WasteHandler{svc: svc} }

type idURI struct {
	ID int64 `uri:"id" json:"-"`
}

type nameURI struct {
	Name string `uri:"name" binding:"required"`
}

type statusURI struct {
	Status string `uri:"status" binding:"required,wastestatus"`
}

// entryIn 提交和修改共用；status 字段即使传了也会被忽略。
// 指针字段上的 required 只校验字段存在（非 null），空串和 0 照常接受
type entryIn struct {
	FamilyName *string  `json:"familyName" binding:"required"`
	WasteType  *string  `json:"wasteType" binding:"required"`
	Quantity   *float64 `json:"quantity" binding:"required"`
}

func (in *entryIn) fields() service.EntryFields {
	return service.EntryFields{FamilyName: *in.FamilyName, WasteType: *in.WasteType, Quantity: *in.Quantity}
}

type entryUpdateIn struct {
	idURI
	entryIn
}

type statusIn struct {
	idURI
	Status string `json:"status" binding:"required,wastestatus"`
}

type none struct{}

// MountFamily /api/family
func (h *WasteHandler) MountFamily(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[entryIn, *domain.WasteEntry]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *entryIn) (*domain.WasteEntry, error) {
			f := in.fields()
			return h.svc.Submit(c.Request.Context(), f.FamilyName, f.WasteType, f.Quantity)
		},
	})

	ez.RegisterAction(e, ez.Action[nameURI, []domain.WasteEntry]{
		Method: http.MethodGet,
		Path:   "/:name",
		Binder: ez.BindURI,
		Handler: func(c *gin.Context, in *nameURI) ([]domain.WasteEntry, error) {
			return h.svc.ListByFamily(c.Request.Context(), in.Name)
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, *domain.WasteEntry]{
		Method: http.MethodGet,
		Path:   "/entry/:id",
		Binder: ez.BindURI,
		Handler: func(c *gin.Context, in *idURI) (*domain.WasteEntry, error) {
			return h.svc.Get(c.Request.Context(), in.ID)
		},
	})

	ez.RegisterAction(e, ez.Action[entryUpdateIn, *domain.WasteEntry]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindURIJSON,
		Handler: func(c *gin.Context, in *entryUpdateIn) (*domain.WasteEntry, error) {
			return h.svc.Update(c.Request.Context(), in.ID, in.fields())
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, none]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindURI,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, in *idURI) (none, error) {
			return none{}, h.svc.DeleteByFamily(c.Request.Context(), in.ID)
		},
	})

	ez.RegisterAction(e, ez.Action[statusURI, []domain.WasteEntry]{
		Method:  http.MethodGet,
		Path:    "/status/:status",
		Binder:  ez.BindURI,
		Handler: h.listByStatus,
	})
}

// MountCenter /api/center
func (h *WasteHandler) MountCenter(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[none, []domain.WasteEntry]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) ([]domain.WasteEntry, error) {
			return h.svc.ListAll(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[statusURI, []domain.WasteEntry]{
		Method:  http.MethodGet,
		Path:    "/status/:status",
		Binder:  ez.BindURI,
		Handler: h.listByStatus,
	})

	ez.RegisterAction(e, ez.Action[nameURI, []domain.WasteEntry]{
		Method: http.MethodGet,
		Path:   "/family/:name",
		Binder: ez.BindURI,
		Handler: func(c *gin.Context, in *nameURI) ([]domain.WasteEntry, error) {
			return h.svc.ListByFamily(c.Request.Context(), in.Name)
		},
	})

	ez.RegisterAction(e, ez.Action[statusIn, *domain.WasteEntry]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindURIJSON,
		Handler: func(c *gin.Context, in *statusIn) (*domain.WasteEntry, error) {
			return h.svc.TransitionStatus(c.Request.Context(), in.ID, in.Status)
		},
	})

	// 回收中心删除：记录不存在也按 400 返回
	ez.RegisterAction(e, ez.Action[idURI, none]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindURI,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, in *idURI) (none, error) {
			err := h.svc.DeleteIfRecycled(c.Request.Context(), in.ID)
			if errors.Is(err, domain.ErrNotFound) {
				return none{}, ez.BadRequest(err.Error())
			}
			return none{}, err
		},
	})
}

func (h *WasteHandler) listByStatus(c *gin.Context, in *statusURI) ([]domain.WasteEntry, error) {
	return h.svc.ListByStatus(c.Request.Context(), in.Status)
}
