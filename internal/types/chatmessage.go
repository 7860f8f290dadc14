package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatMessage is an append-only, soft-deletable chat turn. A nil PageID marks
// a legacy/unscoped message. CreatedAt is the sole ordering key within a
// (user_id, page_id) scope; DeletedAt hides a row from all normal reads
// without removing it.
type ChatMessage struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_messages_user_page_created,priority:1;index:idx_chat_messages_user_created,priority:1" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

	PageID *uuid.UUID `gorm:"type:uuid;index:idx_chat_messages_user_page_created,priority:2;index:idx_chat_messages_page_created,priority:1" json:"page_id,omitempty"`
	Page   *Page      `gorm:"constraint:OnDelete:CASCADE;foreignKey:PageID;references:ID" json:"-"`

	// Tagged-union content: ContentType picks which of Content/Payload holds
	// the message body, decided once at write time.
	ContentType string         `gorm:"column:content_type;not null;default:text" json:"content_type"`
	Content     string         `gorm:"column:content;type:text" json:"-"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"-"`

	IsUserMessage bool `gorm:"column:is_user_message;not null" json:"is_user_message"`

	CreatedAt time.Time      `gorm:"not null;index:idx_chat_messages_user_page_created,priority:3;index:idx_chat_messages_user_created,priority:2;index:idx_chat_messages_page_created,priority:2" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// SetContent stores the tagged union on the row, clearing whichever branch
// is not in use.
func (m *ChatMessage) SetContent(c MessageContent) {
	m.ContentType = c.Type
	switch c.Type {
	case ContentTypeJSON:
		m.Content = ""
		m.Payload = c.Doc
	default:
		m.ContentType = ContentTypeText
		m.Content = c.Text
		m.Payload = nil
	}
}

// DecodedContent returns the message body as the caller wrote it: the plain
// string for text messages, the unmarshalled document for structured ones.
func (m *ChatMessage) DecodedContent() (interface{}, error) {
	return MessageContent{Type: m.ContentType, Text: m.Content, Doc: m.Payload}.Decode()
}
