package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent(t *testing.T) {
	t.Run("JSON string becomes text", func(t *testing.T) {
		c := ParseContent(json.RawMessage(`"hello there"`))
		assert.Equal(t, ContentTypeText, c.Type)
		assert.Equal(t, "hello there", c.Text)
	})

	t.Run("object becomes a structured document", func(t *testing.T) {
		c := ParseContent(json.RawMessage(`{"kind":"job_match","score":9}`))
		assert.Equal(t, ContentTypeJSON, c.Type)

		doc, err := c.Decode()
		require.NoError(t, err)
		m, ok := doc.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "job_match", m["kind"])
	})

	t.Run("array stays structured", func(t *testing.T) {
		c := ParseContent(json.RawMessage(`[1,2,3]`))
		assert.Equal(t, ContentTypeJSON, c.Type)
	})
}

func TestChatMessageContentRoundTrip(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var m ChatMessage
		m.SetContent(TextContent("plain words"))
		got, err := m.DecodedContent()
		require.NoError(t, err)
		assert.Equal(t, "plain words", got)
	})

	t.Run("structured", func(t *testing.T) {
		content, err := StructuredContent(map[string]string{"role": "bot"})
		require.NoError(t, err)

		var m ChatMessage
		m.SetContent(content)
		got, err := m.DecodedContent()
		require.NoError(t, err)
		doc, ok := got.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "bot", doc["role"])
	})
}
