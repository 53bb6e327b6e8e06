package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deckprep/backend/middleware"
	"github.com/deckprep/backend/models"
)

type WebController struct {
	DB *models.Database
}

// currentProfile resolves the authenticated caller's local profile. It writes
// the response itself on failure: 401 when the middleware put no identity on
// the context, 404 when no profile exists for the external id yet.
func (wc WebController) currentProfile(c *gin.Context) (*models.UserProfile, bool) {
	externalId, exists := c.Get(middleware.USER_EXTERNAL_ID_KEY)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	profile, err := wc.DB.GetUserProfile(externalId.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching profile"})
		return nil, false
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return nil, false
	}
	return profile, true
}

// respondRoleError maps a membership guard failure to a 403 carrying both the
// required and actual role, so clients can tell "not a member" from
// "insufficient privilege". Anything else is an unexpected store error.
func respondRoleError(c *gin.Context, err error) {
	var roleErr *models.InsufficientRoleError
	if errors.As(err, &roleErr) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":         "insufficient_role",
			"required_role": string(roleErr.Required),
			"actual_role":   string(roleErr.Actual),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking organization role"})
}
