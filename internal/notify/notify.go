package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"waste-recycling-tracker/internal/core/metrics"
)

type Kind string

const (
	KindStatusChange       Kind = "status-change"
	KindPickup             Kind = "pickup-scheduled"
	KindRecyclingCompleted Kind = "recycling-completed"
	KindWeeklySummary      Kind = "weekly-summary"
	KindAdminAlert         Kind = "admin-alert"
)

// 日志标题
var titles = map[Kind]string{
	KindStatusChange:       "NOTIFICATION",
	KindPickup:             "PICKUP NOTIFICATION",
	KindRecyclingCompleted: "RECYCLING COMPLETED NOTIFICATION",
	KindWeeklySummary:      "WEEKLY SUMMARY",
	KindAdminAlert:         "ADMIN ALERT",
}

type Message struct {
	Kind Kind
	To   string // 家庭名；admin-alert 为空
	Body string
}

// Sink 真正的投递方式；目前只有写日志
type Sink interface {
	Send(ctx context.Context, m Message) error
}

// LogSink 一条通知一行 info 日志
type LogSink struct{ L *zap.Logger }

func (s LogSink) Send(_ context.Context, m Message) error {
	s.L.Info(titles[m.Kind], zap.String("kind", string(m.Kind)), zap.String("to", m.To), zap.String("message", m.Body))
	return nil
}

// Notifier 格式化后交给 Sink；同步、不重试
type Notifier struct {
	sink Sink
}

func New(sink Sink) *Notifier { return &Notifier{sink: sink} }

func (n *Notifier) emit(ctx context.Context, m Message) (Message, error) {
	if err := n.sink.Send(ctx, m); err != nil {
		metrics.Notifications.WithLabelValues(string(m.Kind), "error").Inc()
		return m, fmt.Errorf("send %s: %w", m.Kind, err)
	}
	metrics.Notifications.WithLabelValues(string(m.Kind), "ok").Inc()
	return m, nil
}

const signature = "Best regards,\nWaste Recycling Tracker Team"

func (n *Notifier) StatusChange(ctx context.Context, familyName, wasteType, oldStatus, newStatus string) (Message, error) {
	return n.emit(ctx, Message{
		Kind: KindStatusChange,
		To:   familyName,
		Body: fmt.Sprintf("Dear %s,\n\nYour waste entry has been updated:\nWaste Type: %s\nStatus: %s → %s\n\n"+
			"Thank you for your contribution to recycling!\n"+signature,
			familyName, wasteType, oldStatus, newStatus),
	})
}

func (n *Notifier) Pickup(ctx context.Context, familyName string, quantity float64) (Message, error) {
	return n.emit(ctx, Message{
		Kind: KindPickup,
		To:   familyName,
		Body: fmt.Sprintf("Dear %s,\n\nYour waste collection is scheduled!\nTotal Quantity: %.2f kg\n\n"+
			"Please have your waste ready for pickup.\n"+signature,
			familyName, quantity),
	})
}

func (n *Notifier) RecyclingCompleted(ctx context.Context, familyName, wasteType string, quantity float64) (Message, error) {
	return n.emit(ctx, Message{
		Kind: KindRecyclingCompleted,
		To:   familyName,
		Body: fmt.Sprintf("Dear %s,\n\nYour waste has been successfully recycled!\nWaste Type: %s\nQuantity: %.2f kg\n\n"+
			"Thank you for contributing to environmental conservation!\n"+signature,
			familyName, wasteType, quantity),
	})
}

func (n *Notifier) WeeklySummary(ctx context.Context, familyName string, totalEntries int64, totalQuantity float64) (Message, error) {
	return n.emit(ctx, Message{
		Kind: KindWeeklySummary,
		To:   familyName,
		Body: fmt.Sprintf("Dear %s,\n\nYour Weekly Waste Summary:\nTotal Entries: %d\nTotal Quantity: %.2f kg\n\n"+
			"Keep up the good work!\n"+signature,
			familyName, totalEntries, totalQuantity),
	})
}

// AdminAlert 数量为整数 kg
func (n *Notifier) AdminAlert(ctx context.Context, pendingCount, totalQuantity int64) (Message, error) {
	return n.emit(ctx, Message{
		Kind: KindAdminAlert,
		Body: fmt.Sprintf("Admin Alert:\n\nPending waste entries: %d\nTotal quantity waiting for processing: %d kg\n\n"+
			"Please review and process these entries.\nBest regards,\nWaste Recycling Tracker System",
			pendingCount, totalQuantity),
	})
}
