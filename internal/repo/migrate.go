package repo

import (
	"gorm.io/gorm"

	"waste-recycling-tracker/internal/feature/user"
	"waste-recycling-tracker/internal/feature/waste"
)

// Migrate 建表（db.auto_migrate 打开时由 cmd 调用；测试也走这里）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&waste.WasteModel{}, &user.UserModel{})
}
