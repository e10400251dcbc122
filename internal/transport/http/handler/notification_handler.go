package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"waste-recycling-tracker/internal/notify"
)

// NotificationHandler 响应格式与其它接口不同：成功 {"message"}，失败 {"error"}
type NotificationHandler struct {
	n *notify.Notifier
}

func NewNotificationHandler(n *notify.Notifier) *NotificationHandler {
	return &NotificationHandler{n: n}
}

// body 宽松读取：数字字段接受任意 JSON 数字或数字字符串
type body map[string]any

func (b body) str(key string) string {
	v, ok := b[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

func (b body) number(key string) (float64, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing field %s", key)
	}
	// cast 会把 true/false 当成 1/0
	if _, isBool := v.(bool); isBool {
		return 0, fmt.Errorf("field %s is not a number", key)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("field %s is not a number", key)
	}
	return f, nil
}

// integer 整数字段按截断处理
func (b body) integer(key string) (int64, error) {
	f, err := b.number(key)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func (h *NotificationHandler) Mount(g *gin.RouterGroup) {
	g.POST("/status-change", h.handle("Notification sent successfully", func(ctx context.Context, b body) error {
		_, err := h.n.StatusChange(ctx, b.str("familyName"), b.str("wasteType"), b.str("oldStatus"), b.str("newStatus"))
		return err
	}))

	g.POST("/pickup", h.handle("Pickup notification sent successfully", func(ctx context.Context, b body) error {
		q, err := b.number("quantity")
		if err != nil {
			return err
		}
		_, err = h.n.Pickup(ctx, b.str("familyName"), q)
		return err
	}))

	g.POST("/recycling-completed", h.handle("Recycling notification sent successfully", func(ctx context.Context, b body) error {
		q, err := b.number("quantity")
		if err != nil {
			return err
		}
		_, err = h.n.RecyclingCompleted(ctx, b.str("familyName"), b.str("wasteType"), q)
		return err
	}))

	g.POST("/weekly-summary", h.handle("Weekly summary sent successfully", func(ctx context.Context, b body) error {
		entries, err := b.integer("totalEntries")
		if err != nil {
			return err
		}
		q, err := b.number("totalQuantity")
		if err != nil {
			return err
		}
		_, err = h.n.WeeklySummary(ctx, b.str("familyName"), entries, q)
		return err
	}))

	g.POST("/admin-alert", h.handle("Admin alert sent successfully", func(ctx context.Context, b body) error {
		pending, err := b.integer("pendingCount")
		if err != nil {
			return err
		}
		q, err := b.integer("totalQuantity")
		if err != nil {
			return err
		}
		_, err = h.n.AdminAlert(ctx, pending, q)
		return err
	}))
}

func (h *NotificationHandler) handle(okMsg string, send func(context.Context, body) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		if err := send(c.Request.Context(), b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": okMsg})
	}
}
