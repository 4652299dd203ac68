package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal identity record, upserted the first time an id is referenced
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
