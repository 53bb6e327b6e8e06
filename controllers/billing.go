package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deckprep/backend/models"
)

// BillingStatus is owner-only. Billing is gated on CanManageBilling rather
// than a minimum-role walk because no role outranks owner.
func (wc WebController) BillingStatus(c *gin.Context) {
	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}
	org, ok := wc.orgFromSlug(c)
	if !ok {
		return
	}

	role, found, err := wc.DB.GetUserOrgRole(profile.ID, org.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking organization role"})
		return
	}
	if !found || !models.CanManageBilling(role) {
		respondRoleError(c, &models.InsufficientRoleError{Required: models.RoleOwner, Actual: role})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization_id": org.ID,
		"plan":            "free",
		"billing_enabled": false,
	})
}
