package handlers

import (
	"net/http"
	"strconv"

	"sports-meetup/internal/services"

	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 500

type MessageHandler struct {
	chat *services.ChatService
}

func NewMessageHandler(chat *services.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

// History returns a channel's chat messages, oldest first
// GET /api/message/history?channel_id=&limit=
func (h *MessageHandler) History(c *gin.Context) {
	channelID, ok := parseUUIDParam(c, c.Query("channel_id"), "channel_id")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	history, err := h.chat.GetHistory(c.Request.Context(), channelID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(history) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no messages found for channel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel_id": channelID, "messages": history})
}
