package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/virshi-ai/visibility-api/internal/analytics"
	"github.com/virshi-ai/visibility-api/internal/store"
)

// DashboardHandler serves aggregated visibility metrics.
type DashboardHandler struct {
	projects *store.ProjectStore
	scans    *store.ScanStore
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(projects *store.ProjectStore, scans *store.ScanStore) *DashboardHandler {
	return &DashboardHandler{projects: projects, scans: scans}
}

// Metrics returns the dashboard summary for one project.
func (h *DashboardHandler) Metrics(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	project := ownedProject(c, h.projects, projectID)
	if project == nil {
		return
	}

	results, errList := h.scans.ListRecent(c.Request.Context(), projectID, 1000)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load scan results failed"})
		return
	}

	summary := analytics.Summarize(
		results,
		project.BrandName,
		project.Domain,
		stringList(project.OfficialSources),
		stringList(project.Competitors),
	)
	c.JSON(http.StatusOK, gin.H{"metrics": summary})
}

// parseQueryID parses a numeric query-string value, writing the 400
// itself.
func parseQueryID(c *gin.Context, raw string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return 0, false
	}
	return id, true
}
