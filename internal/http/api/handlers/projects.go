package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/virshi-ai/visibility-api/internal/billing"
	"github.com/virshi-ai/visibility-api/internal/models"
	"github.com/virshi-ai/visibility-api/internal/store"
	"gorm.io/datatypes"
)

// ProjectHandler serves brand project CRUD.
type ProjectHandler struct {
	projects *store.ProjectStore
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(projects *store.ProjectStore) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type projectRequest struct {
	BrandName       string   `json:"brand_name" binding:"required"`
	Domain          string   `json:"domain"`
	Industry        string   `json:"industry"`
	Products        string   `json:"products"`
	OfficialSources []string `json:"official_sources"`
	Competitors     []string `json:"competitors"`
}

// Create registers a new brand project on the trial plan.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand_name is required"})
		return
	}

	project := models.Project{
		UserID:          currentUserID(c),
		BrandName:       strings.TrimSpace(req.BrandName),
		Domain:          strings.TrimSpace(req.Domain),
		Industry:        strings.TrimSpace(req.Industry),
		Products:        strings.TrimSpace(req.Products),
		OfficialSources: jsonList(req.OfficialSources),
		Competitors:     jsonList(req.Competitors),
	}
	if errCreate := h.projects.Create(c.Request.Context(), &project); errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create project failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": projectView(&project)})
}

// List returns the current user's projects.
func (h *ProjectHandler) List(c *gin.Context) {
	projects, errList := h.projects.ListByUser(c.Request.Context(), currentUserID(c))
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list projects failed"})
		return
	}

	out := make([]gin.H, 0, len(projects))
	for i := range projects {
		out = append(out, projectView(&projects[i]))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// Get returns one project.
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	project := ownedProject(c, h.projects, projectID)
	if project == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": projectView(project)})
}

// Update edits the brand profile of a project.
func (h *ProjectHandler) Update(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	project := ownedProject(c, h.projects, projectID)
	if project == nil {
		return
	}

	var req projectRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand_name is required"})
		return
	}

	updates := map[string]any{
		"brand_name":       strings.TrimSpace(req.BrandName),
		"domain":           strings.TrimSpace(req.Domain),
		"industry":         strings.TrimSpace(req.Industry),
		"products":         strings.TrimSpace(req.Products),
		"official_sources": jsonList(req.OfficialSources),
		"competitors":      jsonList(req.Competitors),
	}
	if errUpdate := h.projects.Update(c.Request.Context(), projectID, updates); errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update project failed"})
		return
	}

	updated, errGet := h.projects.Get(c.Request.Context(), projectID)
	if errGet != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load project failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": projectView(updated)})
}

// Delete removes a project and its keywords.
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}

	if errDelete := h.projects.Delete(c.Request.Context(), projectID); errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete project failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func projectView(project *models.Project) gin.H {
	return gin.H{
		"id":               project.ID,
		"brand_name":       project.BrandName,
		"domain":           project.Domain,
		"industry":         project.Industry,
		"products":         project.Products,
		"official_sources": stringList(project.OfficialSources),
		"competitors":      stringList(project.Competitors),
		"plan":             billing.GetPlan(project.Status).Code,
		"created_at":       project.CreatedAt,
		"updated_at":       project.UpdatedAt,
	}
}

func jsonList(values []string) datatypes.JSON {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	raw, errMarshal := json.Marshal(cleaned)
	if errMarshal != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

func stringList(col datatypes.JSON) []string {
	if len(col) == 0 {
		return []string{}
	}
	var list []string
	if errDecode := json.Unmarshal([]byte(col), &list); errDecode != nil {
		return []string{}
	}
	return list
}

// parseID parses a numeric path parameter, writing the 400 itself.
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
