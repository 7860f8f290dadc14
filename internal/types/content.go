package types

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

const (
	ContentTypeText = "text"
	ContentTypeJSON = "json"
)

// MessageContent is the tagged union for a chat message body: either plain
// text or a structured JSON document. The discriminator is set when the
// message is written, so reads never have to guess whether a string that
// happens to look like JSON should be decoded.
type MessageContent struct {
	Type string
	Text string
	Doc  datatypes.JSON
}

func TextContent(s string) MessageContent {
	return MessageContent{Type: ContentTypeText, Text: s}
}

// StructuredContent marshals an arbitrary document into the JSON branch.
func StructuredContent(doc interface{}) (MessageContent, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return MessageContent{}, fmt.Errorf("failed to marshal structured content: %w", err)
	}
	return MessageContent{Type: ContentTypeJSON, Doc: datatypes.JSON(raw)}, nil
}

// ParseContent interprets a wire payload the way clients send it: a JSON
// string becomes text content, anything else is kept as a structured
// document.
func ParseContent(raw json.RawMessage) MessageContent {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return TextContent(s)
	}
	return MessageContent{Type: ContentTypeJSON, Doc: datatypes.JSON(raw)}
}

// Decode returns the body as a string (text) or an unmarshalled document
// (structured).
func (c MessageContent) Decode() (interface{}, error) {
	if c.Type != ContentTypeJSON {
		return c.Text, nil
	}
	var doc interface{}
	if err := json.Unmarshal(c.Doc, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode structured content: %w", err)
	}
	return doc, nil
}
