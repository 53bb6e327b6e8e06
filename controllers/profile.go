package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deckprep/backend/middleware"
	"github.com/deckprep/backend/models"
	"github.com/deckprep/backend/segment"
)

const maxDisplayNameLength = 100

func (wc WebController) GetProfile(c *gin.Context) {
	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile.MapToJsonStruct())
}

type CreateProfileRequest struct {
	UserType string `json:"user_type"`
}

// CreateProfile is the explicit onboarding path: the caller picks a user
// type, identity comes from the verified session token.
func (wc WebController) CreateProfile(c *gin.Context) {
	externalId, exists := c.Get(middleware.USER_EXTERNAL_ID_KEY)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	email := c.GetString(middleware.USER_EMAIL_KEY)

	var request CreateProfileRequest
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	userType := models.UserType(request.UserType)
	if request.UserType == "" {
		userType = models.UserTypeLearner
	}
	if !userType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user type"})
		return
	}

	profile, err := wc.DB.CreateUserProfile(externalId.(string), email, nil, nil, userType)
	if err != nil {
		if models.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Profile already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating profile"})
		return
	}

	segment.IdentifyProfile(profile)
	c.JSON(http.StatusCreated, profile.MapToJsonStruct())
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarUrl   *string `json:"avatar_url"`
	UserType    *string `json:"user_type"`
}

func (wc WebController) UpdateProfile(c *gin.Context) {
	var request UpdateProfileRequest
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}
	if request.DisplayName == nil && request.AvatarUrl == nil && request.UserType == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if request.DisplayName != nil {
		trimmed := strings.TrimSpace(*request.DisplayName)
		if len(trimmed) > maxDisplayNameLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Display name is too long"})
			return
		}
		request.DisplayName = &trimmed
	}
	if request.UserType != nil && !models.UserType(*request.UserType).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user type"})
		return
	}

	profile, ok := wc.currentProfile(c)
	if !ok {
		return
	}

	if request.DisplayName != nil {
		profile.DisplayName = request.DisplayName
	}
	if request.AvatarUrl != nil {
		profile.AvatarUrl = request.AvatarUrl
	}
	if request.UserType != nil {
		profile.UserType = models.UserType(*request.UserType)
	}

	if err := wc.DB.UpdateUserProfile(profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating profile"})
		return
	}

	slog.Info("profile updated via api", "userId", profile.ID)
	c.JSON(http.StatusOK, profile.MapToJsonStruct())
}
