package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'users' table. The schema is owned by the SQL migrations.
type AccountModel struct {
	ID           uuid.UUID `gorm:"column:id"`
	Login        string    `gorm:"column:login"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "users"
}
