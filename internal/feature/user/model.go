package user

type UserModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"uniqueIndex;size:191;not null"`
	Password string `gorm:"size:255;not null"`
	Role     string `gorm:"size:16;not null;index"`
}

func (UserModel) TableName() string { return "users" }
