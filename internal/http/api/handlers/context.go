package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/virshi-ai/visibility-api/internal/models"
	"github.com/virshi-ai/visibility-api/internal/store"
)

// currentUserID reads the user ID placed in the context by the auth
// middleware.
func currentUserID(c *gin.Context) uint64 {
	id, _ := c.Get("userID")
	userID, _ := id.(uint64)
	return userID
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("userRole")
	name, _ := role.(string)
	return name == models.RoleAdmin
}

// ownedProject loads a project and enforces that the current user owns
// it (admins may access any project). On failure the response is
// already written and nil is returned.
func ownedProject(c *gin.Context, projects *store.ProjectStore, projectID uint64) *models.Project {
	project, errGet := projects.Get(c.Request.Context(), projectID)
	if errGet != nil {
		if errors.Is(errGet, store.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return nil
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load project failed"})
		return nil
	}
	if project.UserID != currentUserID(c) && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your project"})
		return nil
	}
	return project
}
