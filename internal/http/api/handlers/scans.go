package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/virshi-ai/visibility-api/internal/automation"
	"github.com/virshi-ai/visibility-api/internal/billing"
	"github.com/virshi-ai/visibility-api/internal/scan"
	"github.com/virshi-ai/visibility-api/internal/store"
)

// ScanHandler serves analysis runs and scan history.
type ScanHandler struct {
	projects *store.ProjectStore
	scans    *store.ScanStore
	service  *scan.Service
}

// NewScanHandler constructs a ScanHandler.
func NewScanHandler(projects *store.ProjectStore, scans *store.ScanStore, service *scan.Service) *ScanHandler {
	return &ScanHandler{projects: projects, scans: scans, service: service}
}

type runAnalysisRequest struct {
	KeywordIDs []uint64 `json:"keyword_ids"`
}

// Run admits and executes a visibility analysis for a project. An
// empty keyword list scans every active keyword.
func (h *ScanHandler) Run(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}

	var req runAnalysisRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&req); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	outcome, errRun := h.service.RunAnalysis(c.Request.Context(), projectID, req.KeywordIDs)
	if errRun != nil {
		writeScanError(c, errRun)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis":            outcome.Analysis,
		"scanned_keyword_ids": outcome.Scanned,
		"quota":               outcome.Decision,
	})
}

// Prompts asks the automation service for keyword prompt candidates.
func (h *ScanHandler) Prompts(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}

	prompts, errPrompts := h.service.GeneratePrompts(c.Request.Context(), projectID)
	if errPrompts != nil {
		writeScanError(c, errPrompts)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompts": prompts})
}

type recommendationsRequest struct {
	Analysis json.RawMessage `json:"analysis_data" binding:"required"`
}

// Recommendations forwards prior analysis data for recommendations.
func (h *ScanHandler) Recommendations(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}

	var req recommendationsRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "analysis_data is required"})
		return
	}

	recommendations, errCall := h.service.Recommendations(c.Request.Context(), projectID, req.Analysis)
	if errCall != nil {
		writeScanError(c, errCall)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

// History returns recent scan results for a project.
func (h *ScanHandler) History(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if project := ownedProject(c, h.projects, projectID); project == nil {
		return
	}

	rows, errList := h.scans.ListRecent(c.Request.Context(), projectID, 200)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list scans failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"keyword_id": row.KeywordID,
			"model":      row.Model,
			"response":   row.Response,
			"sentiment":  row.Sentiment,
			"sources":    json.RawMessage(row.Sources),
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"scans": out})
}

// writeScanError maps scan and gateway failures onto HTTP statuses.
func writeScanError(c *gin.Context, err error) {
	var quotaErr *scan.QuotaError
	if errors.As(err, &quotaErr) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "plan quota exceeded",
			"quota": quotaErr.Decision,
		})
		return
	}

	var trialErr *scan.TrialKeywordError
	if errors.As(err, &trialErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "keyword already scanned on trial",
			"keyword_id": trialErr.KeywordID,
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	case errors.Is(err, scan.ErrNoKeywords):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no keywords to scan"})
		return
	case errors.Is(err, scan.ErrUsageLookup):
		log.WithError(err).Error("scan refused: usage count unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "usage data unavailable, scan refused"})
		return
	case errors.Is(err, billing.ErrInvalidUnits):
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to scan"})
		return
	}

	var callErr *automation.CallError
	if errors.As(err, &callErr) {
		log.WithError(callErr).WithField("endpoint", callErr.Endpoint).Warn("automation call failed")
		status := http.StatusBadGateway
		if callErr.Kind == automation.KindTransport {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{
			"error":  "automation service failed",
			"kind":   callErr.Kind.String(),
			"status": callErr.Status,
		})
		return
	}

	log.WithError(err).Error("scan failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
}
