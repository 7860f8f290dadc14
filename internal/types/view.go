package types

import (
	"time"

	"github.com/google/uuid"
)

// MessageView is the wire shape of a chat message: Content carries the
// decoded tagged union (string or document).
type MessageView struct {
	ID            uuid.UUID   `json:"id"`
	PageID        *uuid.UUID  `json:"page_id,omitempty"`
	Content       interface{} `json:"content"`
	IsUserMessage bool        `json:"is_user_message"`
	CreatedAt     time.Time   `json:"created_at"`
	DeletedAt     *time.Time  `json:"deleted_at,omitempty"`
}

func (m *ChatMessage) View() (MessageView, error) {
	content, err := m.DecodedContent()
	if err != nil {
		return MessageView{}, err
	}
	v := MessageView{
		ID:            m.ID,
		PageID:        m.PageID,
		Content:       content,
		IsUserMessage: m.IsUserMessage,
		CreatedAt:     m.CreatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		v.DeletedAt = &t
	}
	return v, nil
}

// Views decodes a slice of messages, failing on the first undecodable row.
func Views(msgs []*ChatMessage) ([]MessageView, error) {
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		v, err := m.View()
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
