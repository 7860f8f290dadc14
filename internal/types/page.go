package types

import (
	"time"

	"github.com/google/uuid"
)

// Page is a conversation thread container. Its messages are hard-deleted
// with it (FK cascade); the page row itself is never soft-deleted.
type Page struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

	Title string `gorm:"column:title" json:"title"`

	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
	LastOpenedAt *time.Time `gorm:"column:last_opened_at" json:"last_opened_at,omitempty"`
}

func (Page) TableName() string {
	return "pages"
}
