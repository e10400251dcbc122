package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waste-recycling-tracker/internal/domain"
	"waste-recycling-tracker/internal/stats"
	"waste-recycling-tracker/internal/transport/http/ez"
)

type StatisticsHandler struct {
	agg stats.Aggregator
}

func NewStatisticsHandler(agg stats.Aggregator) *StatisticsHandler {
	return &StatisticsHandler{agg: agg}
}

// Mount /api/statistics
func (h *StatisticsHandler) Mount(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[none, *domain.Statistics]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) (*domain.Statistics, error) {
			return h.agg.Global(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[nameURI, *domain.Statistics]{
		Method: http.MethodGet,
		Path:   "/family/:name",
		Binder: ez.BindURI,
		Handler: func(c *gin.Context, in *nameURI) (*domain.Statistics, error) {
			return h.agg.Family(c.Request.Context(), in.Name)
		},
	})
}
