package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/deckprep/backend/models"
	"github.com/deckprep/backend/segment"
)

const (
	maxOrgNameLength        = 100
	maxOrgDescriptionLength = 500
)

// ListMyOrgs returns every organization the caller belongs to, ordered by
// name, each annotated with the caller's role.
func (wc WebController) ListMyOrgs(c *gin.Context) {
	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}

	orgs, err := wc.DB.ListOrganizationsForUser(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching organizations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": lo.Map(orgs, func(o models.OrganizationWithRole, _ int) gin.H {
			return gin.H{
				"organization": o.Organization.MapToJsonStruct(),
				"role":         string(o.Role),
			}
		}),
	})
}

type CreateOrgRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	LogoUrl     *string `json:"logo_url"`
}

func (wc WebController) CreateOrg(c *gin.Context) {
	var request CreateOrgRequest
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	name := strings.TrimSpace(request.Name)
	if name == "" || len(name) > maxOrgNameLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Organization name must be between 1 and 100 characters"})
		return
	}
	if request.Description != nil && len(*request.Description) > maxOrgDescriptionLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description is too long"})
		return
	}

	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}

	org, err := wc.DB.CreateOrganizationWithOwner(name, request.Description, request.LogoUrl, profile.ID)
	if err != nil {
		if models.IsUniqueViolation(err) {
			// lost the slug race against a concurrent create, the client can retry
			c.JSON(http.StatusConflict, gin.H{"error": "Organization slug already taken, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating organization"})
		return
	}

	segment.TrackOrgCreated(org, profile)
	c.JSON(http.StatusCreated, gin.H{
		"organization": org.MapToJsonStruct(),
		"role":         string(models.RoleOwner),
	})
}

// orgFromSlug resolves the :slug route parameter, writing a 404 on miss.
func (wc WebController) orgFromSlug(c *gin.Context) (*models.Organization, bool) {
	org, err := wc.DB.GetOrganizationBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching organization"})
		return nil, false
	}
	if org == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return nil, false
	}
	return org, true
}

func (wc WebController) GetOrg(c *gin.Context) {
	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}
	org, ok := wc.orgFromSlug(c)
	if !ok {
		return
	}

	role, err := wc.DB.RequireOrgRole(profile.ID, org.ID, models.RoleViewer)
	if err != nil {
		respondRoleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization": org.MapToJsonStruct(),
		"role":         string(role),
	})
}

type AddMemberRequest struct {
	ExternalId string `json:"external_id"`
	Role       string `json:"role"`
}

func (wc WebController) AddOrgMember(c *gin.Context) {
	var request AddMemberRequest
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}
	role := models.OrgRole(request.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}
	org, ok := wc.orgFromSlug(c)
	if !ok {
		return
	}
	if _, err := wc.DB.RequireOrgRole(profile.ID, org.ID, models.RoleAdmin); err != nil {
		respondRoleError(c, err)
		return
	}

	target, err := wc.DB.GetUserProfile(request.ExternalId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	member, err := wc.DB.AddOrganizationMember(org.ID, target.ID, role)
	if err != nil {
		if models.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error adding member"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": member.UserID,
		"role":    string(member.Role),
	})
}

type UpdateMemberRequest struct {
	Role string `json:"role"`
}

func (wc WebController) UpdateOrgMember(c *gin.Context) {
	var request UpdateMemberRequest
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}
	role := models.OrgRole(request.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}
	org, ok := wc.orgFromSlug(c)
	if !ok {
		return
	}
	if _, err := wc.DB.RequireOrgRole(profile.ID, org.ID, models.RoleAdmin); err != nil {
		respondRoleError(c, err)
		return
	}

	member, err := wc.DB.UpdateOrganizationMemberRole(org.ID, cast.ToUint(c.Param("userId")), role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating member"})
		return
	}
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": member.UserID,
		"role":    string(member.Role),
	})
}

func (wc WebController) RemoveOrgMember(c *gin.Context) {
	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}
	org, ok := wc.orgFromSlug(c)
	if !ok {
		return
	}
	if _, err := wc.DB.RequireOrgRole(profile.ID, org.ID, models.RoleAdmin); err != nil {
		respondRoleError(c, err)
		return
	}

	removed, err := wc.DB.RemoveOrganizationMember(org.ID, cast.ToUint(c.Param("userId")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error removing member"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}

type IssueTokenRequest struct {
	Type string `json:"type"`
}

func (wc WebController) IssueOrgToken(c *gin.Context) {
	var request IssueTokenRequest
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}
	tokenType := request.Type
	if tokenType == "" {
		tokenType = models.AccessTokenType
	}
	if tokenType != models.AccessTokenType && tokenType != models.AdminTokenType {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token type"})
		return
	}

	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}
	org, ok := wc.orgFromSlug(c)
	if !ok {
		return
	}
	if _, err := wc.DB.RequireOrgRole(profile.ID, org.ID, models.RoleAdmin); err != nil {
		respondRoleError(c, err)
		return
	}

	token, err := wc.DB.CreateOrgToken(org.ID, tokenType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error issuing token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token.Value,
		"type":  token.Type,
	})
}
