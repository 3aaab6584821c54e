package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/virshi-ai/visibility-api/internal/billing"
	"github.com/virshi-ai/visibility-api/internal/scan"
	"github.com/virshi-ai/visibility-api/internal/store"
)

// BillingHandler serves plan info, usage, and upgrades.
type BillingHandler struct {
	projects *store.ProjectStore
	service  *scan.Service
}

// NewBillingHandler constructs a BillingHandler.
func NewBillingHandler(projects *store.ProjectStore, service *scan.Service) *BillingHandler {
	return &BillingHandler{projects: projects, service: service}
}

// Plans returns the plan catalog.
func (h *BillingHandler) Plans(c *gin.Context) {
	plans := billing.ListPlans()
	out := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		out = append(out, gin.H{
			"code":        plan.Code,
			"name":        plan.Name,
			"scan_limit":  plan.ScanLimit,
			"month_price": plan.MonthPrice,
			"features":    plan.Features,
			"unlimited":   plan.Unlimited(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Usage returns the project's current plan and quota state.
func (h *BillingHandler) Usage(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	project := ownedProject(c, h.projects, projectID)
	if project == nil {
		return
	}

	decision, errStatus := h.service.QuotaStatus(c.Request.Context(), projectID)
	if errStatus != nil {
		if errors.Is(errStatus, scan.ErrUsageLookup) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "usage data unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load usage failed"})
		return
	}

	plan := billing.GetPlan(project.Status)
	c.JSON(http.StatusOK, gin.H{
		"plan":   plan.Code,
		"window": billing.UsageWindow(plan.Code).String(),
		"usage":  decision,
	})
}

type upgradeRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// Upgrade moves the project to another plan. Usage history is kept;
// the new limit applies from the next quota check.
func (h *BillingHandler) Upgrade(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	project := ownedProject(c, h.projects, projectID)
	if project == nil {
		return
	}

	var req upgradeRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan is required"})
		return
	}

	plan, errUpgrade := billing.Upgrade(project.Status, req.Plan)
	if errUpgrade != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan code"})
		return
	}

	if errSet := h.projects.SetStatus(c.Request.Context(), projectID, plan.Code); errSet != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upgrade failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan": gin.H{
			"code":        plan.Code,
			"name":        plan.Name,
			"scan_limit":  plan.ScanLimit,
			"month_price": plan.MonthPrice,
		},
	})
}
