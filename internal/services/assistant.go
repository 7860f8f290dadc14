package services

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/types"
	"github.com/jobhackerbot/backend/internal/utils"
)

// AssistantService is the external agent behind the chat flow, consumed as a
// black box through an OpenAI-compatible chat-completion endpoint. The
// history must already end with the user turn to answer.
type AssistantService interface {
	Reply(ctx context.Context, history []types.MessageView) (string, error)
}

type assistantService struct {
	log    *logger.Logger
	client *openai.Client
	model  string
}

func NewAssistantService(log *logger.Logger) (AssistantService, error) {
	serviceLog := log.With("service", "AssistantService")
	apiKey := utils.GetEnv("OPENAI_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY environment variable")
	}
	baseURL := utils.GetEnv("OPENAI_BASE_URL", "", log)
	model := utils.GetEnv("ASSISTANT_MODEL", openai.GPT4oMini, log)

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &assistantService{
		log:    serviceLog,
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (s *assistantService) Reply(ctx context.Context, history []types.MessageView) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.IsUserMessage {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: renderContent(m.Content),
		})
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		s.log.Warn("chat completion call failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// renderContent flattens a decoded message body to text for the completion
// request; structured documents go over as their JSON encoding.
func renderContent(content interface{}) string {
	if s, ok := content.(string); ok {
		return s
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Sprintf("%v", content)
	}
	return string(raw)
}
