package waste

import "time"

type WasteModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	FamilyName string    `gorm:"size:191;not null;index"`
	WasteType  string    `gorm:"size:64;not null"`
	Quantity   float64   `gorm:"not null"`
	Status     string    `gorm:"size:16;not null;default:PENDING;index"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;<-:create"` // 只允许插入时写
}

func (WasteModel) TableName() string { return "family_waste" }
