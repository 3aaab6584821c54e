package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/virshi-ai/visibility-api/internal/models"
	"github.com/virshi-ai/visibility-api/internal/scan"
	"github.com/virshi-ai/visibility-api/internal/store"
)

// ChatHandler serves the AI assistant conversation.
type ChatHandler struct {
	projects *store.ProjectStore
	chat     *store.ChatStore
	service  *scan.Service
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(projects *store.ProjectStore, chat *store.ChatStore, service *scan.Service) *ChatHandler {
	return &ChatHandler{projects: projects, chat: chat, service: service}
}

type chatRequest struct {
	ProjectID uint64         `json:"project_id"`
	Query     string         `json:"query" binding:"required"`
	Context   map[string]any `json:"context"`
}

// Ask forwards a question to the assistant and persists the exchange.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req chatRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.ProjectID != 0 {
		if project := ownedProject(c, h.projects, req.ProjectID); project == nil {
			return
		}
	}

	reply, errChat := h.service.Chat(c.Request.Context(), req.ProjectID, req.Query, req.Context)
	if errChat != nil {
		writeScanError(c, errChat)
		return
	}

	userID := currentUserID(c)
	question := models.ChatMessage{
		UserID:    userID,
		ProjectID: req.ProjectID,
		Role:      models.ChatRoleUser,
		Content:   strings.TrimSpace(req.Query),
	}
	if errAppend := h.chat.Append(c.Request.Context(), &question); errAppend != nil {
		log.WithError(errAppend).Warn("persist chat question failed")
	}

	text := reply.Text
	if reply.Empty {
		text = "No response received. Please try rephrasing your question."
	}
	answer := models.ChatMessage{
		UserID:    userID,
		ProjectID: req.ProjectID,
		Role:      models.ChatRoleAssistant,
		Content:   text,
	}
	if errAppend := h.chat.Append(c.Request.Context(), &answer); errAppend != nil {
		log.WithError(errAppend).Warn("persist chat answer failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": text,
		"empty": reply.Empty,
	})
}

// History returns the conversation in chronological order.
func (h *ChatHandler) History(c *gin.Context) {
	projectID := uint64(0)
	if raw := strings.TrimSpace(c.Query("project_id")); raw != "" {
		id, ok := parseQueryID(c, raw)
		if !ok {
			return
		}
		projectID = id
	}

	history, errHistory := h.chat.History(c.Request.Context(), currentUserID(c), projectID, 100)
	if errHistory != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load history failed"})
		return
	}

	out := make([]gin.H, 0, len(history))
	for _, msg := range history {
		out = append(out, gin.H{
			"role":       msg.Role,
			"content":    msg.Content,
			"project_id": msg.ProjectID,
			"created_at": msg.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// Clear deletes the current user's conversation.
func (h *ChatHandler) Clear(c *gin.Context) {
	projectID := uint64(0)
	if raw := strings.TrimSpace(c.Query("project_id")); raw != "" {
		id, ok := parseQueryID(c, raw)
		if !ok {
			return
		}
		projectID = id
	}

	if errClear := h.chat.Clear(c.Request.Context(), currentUserID(c), projectID); errClear != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear history failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
