package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jobhackerbot/backend/internal/services"
	"github.com/jobhackerbot/backend/internal/types"
)

type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// optionalPageID parses the page_id query param; absent means the
// legacy/unscoped message scope.
func optionalPageID(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("page_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_id must be a valid UUID"})
		return nil, false
	}
	return &id, true
}

func (mh *MessageHandler) GetMessages(c *gin.Context) {
	pageID, ok := optionalPageID(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultListLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}
	messages, err := mh.messageService.List(c.Request.Context(), pageID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (mh *MessageHandler) UpdateMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message id must be a valid UUID"})
		return
	}
	var req struct {
		Content json.RawMessage `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Content) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	view, err := mh.messageService.Update(c.Request.Context(), id, types.ParseContent(req.Content))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": view})
}

func (mh *MessageHandler) DeleteMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message id must be a valid UUID"})
		return
	}
	cascade, err := strconv.ParseBool(c.DefaultQuery("cascade", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cascade must be a boolean"})
		return
	}
	above, err := strconv.ParseBool(c.DefaultQuery("above", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "above must be a boolean"})
		return
	}
	if err := mh.messageService.Delete(c.Request.Context(), id, cascade, above); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (mh *MessageHandler) ClearHistory(c *gin.Context) {
	if err := mh.messageService.ClearHistory(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (mh *MessageHandler) GetOrphaned(c *gin.Context) {
	messages, err := mh.messageService.Orphaned(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (mh *MessageHandler) GetDeleted(c *gin.Context) {
	messages, err := mh.messageService.Deleted(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (mh *MessageHandler) GetByPage(c *gin.Context) {
	groups, err := mh.messageService.ByPage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": groups})
}
