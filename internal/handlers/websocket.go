package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/requestdata"
	"github.com/jobhackerbot/backend/internal/services"
	"github.com/jobhackerbot/backend/internal/socket"
	"github.com/jobhackerbot/backend/internal/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatOrchestrator drives one conversation turn arriving over the socket:
// persist the user message, ask the assistant, persist its reply, broadcast
// both to every connection the user has open.
type ChatOrchestrator struct {
	log              *logger.Logger
	hub              *socket.Hub
	messageService   services.MessageService
	assistantService services.AssistantService
}

func NewChatOrchestrator(log *logger.Logger, hub *socket.Hub, messageService services.MessageService, assistantService services.AssistantService) *ChatOrchestrator {
	return &ChatOrchestrator{
		log:              log.With("component", "ChatOrchestrator"),
		hub:              hub,
		messageService:   messageService,
		assistantService: assistantService,
	}
}

func (co *ChatOrchestrator) HandleChat(ctx context.Context, client *socket.Client, inbound socket.InboundMessage) {
	userChan := "user:" + client.UserID.String()

	var pageID *uuid.UUID
	if inbound.PageID != "" {
		id, err := uuid.Parse(inbound.PageID)
		if err != nil {
			co.sendError(client, userChan, "page_id must be a valid UUID")
			return
		}
		pageID = &id
	}
	if len(inbound.Content) == 0 {
		co.sendError(client, userChan, "chat frame has no content")
		return
	}

	userMsg, err := co.messageService.Append(ctx, pageID, types.ParseContent(inbound.Content), true)
	if err != nil {
		co.log.Warn("failed to append user message", "error", err, "userID", client.UserID)
		co.sendError(client, userChan, err.Error())
		return
	}
	co.broadcastMessage(ctx, userChan, userMsg)

	if co.assistantService == nil {
		co.sendError(client, userChan, "assistant is not configured")
		return
	}

	history, err := co.messageService.Recent(ctx, pageID, services.MaxListLimit)
	if err != nil {
		co.log.Warn("failed to load page history", "error", err, "userID", client.UserID)
		co.sendError(client, userChan, err.Error())
		return
	}
	reply, err := co.assistantService.Reply(ctx, history)
	if err != nil {
		co.log.Warn("assistant reply failed", "error", err, "userID", client.UserID)
		co.sendError(client, userChan, "assistant is unavailable")
		return
	}

	botMsg, err := co.messageService.Append(ctx, pageID, types.TextContent(reply), false)
	if err != nil {
		co.log.Warn("failed to append assistant message", "error", err, "userID", client.UserID)
		co.sendError(client, userChan, err.Error())
		return
	}
	co.broadcastMessage(ctx, userChan, botMsg)
}

func (co *ChatOrchestrator) broadcastMessage(ctx context.Context, channel string, msg *types.ChatMessage) {
	view, err := msg.View()
	if err != nil {
		co.log.Warn("failed to build message view for broadcast", "error", err, "messageID", msg.ID)
		return
	}
	co.hub.BroadcastGlobal(ctx, socket.Message{
		Channel: channel,
		Payload: map[string]interface{}{
			"type":    "chat_message",
			"message": view,
		},
	})
}

func (co *ChatOrchestrator) sendError(client *socket.Client, channel, msg string) {
	select {
	case client.Outbound <- socket.Message{
		Channel: channel,
		Payload: map[string]interface{}{"type": "error", "error": msg},
	}:
	default:
		co.log.Warn("dropping error frame; outbound buffer full", "client", client.ID)
	}
}

func WsHandler(hub *socket.Hub, chat *ChatOrchestrator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("Failed to upgrade to websocket", "error", err)
			return
		}

		// The socket outlives the HTTP request; carry the identity into a
		// fresh cancellable context for the pumps.
		ctx, cancel := context.WithCancel(requestdata.WithRequestData(context.Background(), rd))
		client := socket.NewClient(conn, hub, rd.UserID, cancel, log)
		client.Chat = chat

		hub.Subscribe(client, []string{"user:" + rd.UserID.String()})

		go client.ReadLoop(ctx)
		go client.WriteLoop(ctx)
	}
}
