package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/virshi-ai/visibility-api/internal/models"
	"github.com/virshi-ai/visibility-api/internal/store"
)

// KeywordHandler serves keyword management for a project.
type KeywordHandler struct {
	projects *store.ProjectStore
	keywords *store.KeywordStore
}

// NewKeywordHandler constructs a KeywordHandler.
func NewKeywordHandler(projects *store.ProjectStore, keywords *store.KeywordStore) *KeywordHandler {
	return &KeywordHandler{projects: projects, keywords: keywords}
}

// List returns all keywords of a project, optionally filtered by a
// case-insensitive text query.
func (h *KeywordHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}

	keywords, errList := h.keywords.Search(c.Request.Context(), projectID, c.Query("q"))
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list keywords failed"})
		return
	}

	out := make([]gin.H, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, keywordView(kw))
	}
	c.JSON(http.StatusOK, gin.H{"keywords": out})
}

type addKeywordsRequest struct {
	Keywords []string `json:"keywords" binding:"required"`
	Category string   `json:"category"`
}

// Add tracks new keywords for a project. Blanks and duplicates are
// silently skipped.
func (h *KeywordHandler) Add(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}

	var req addKeywordsRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keywords list is required"})
		return
	}

	created, errAdd := h.keywords.Add(c.Request.Context(), projectID, req.Keywords, req.Category)
	if errAdd != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add keywords failed"})
		return
	}

	out := make([]gin.H, 0, len(created))
	for _, kw := range created {
		out = append(out, keywordView(kw))
	}
	c.JSON(http.StatusCreated, gin.H{"keywords": out})
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive toggles one keyword without losing its scan history.
func (h *KeywordHandler) SetActive(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	keywordID, ok := parseID(c, "keyword_id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}
	if !h.keywordInProject(c, keywordID, projectID) {
		return
	}

	var req setActiveRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active flag is required"})
		return
	}

	if errSet := h.keywords.SetActive(c.Request.Context(), keywordID, *req.Active); errSet != nil {
		if errors.Is(errSet, store.ErrKeywordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "keyword not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update keyword failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// Delete removes one keyword.
func (h *KeywordHandler) Delete(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	keywordID, ok := parseID(c, "keyword_id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}
	if !h.keywordInProject(c, keywordID, projectID) {
		return
	}

	if errDelete := h.keywords.Delete(c.Request.Context(), keywordID); errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete keyword failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *KeywordHandler) keywordInProject(c *gin.Context, keywordID, projectID uint64) bool {
	keyword, errGet := h.keywords.Get(c.Request.Context(), keywordID)
	if errGet != nil {
		if errors.Is(errGet, store.ErrKeywordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "keyword not found"})
			return false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load keyword failed"})
		return false
	}
	if keyword.ProjectID != projectID {
		c.JSON(http.StatusNotFound, gin.H{"error": "keyword not found"})
		return false
	}
	return true
}

func keywordView(kw models.Keyword) gin.H {
	return gin.H{
		"id":         kw.ID,
		"text":       kw.Text,
		"category":   kw.Category,
		"is_active":  kw.IsActive,
		"created_at": kw.CreatedAt,
	}
}
