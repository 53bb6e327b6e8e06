package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/deckprep/backend/models"
)

type IdentityEmailAddress struct {
	Id           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type IdentityEventData struct {
	Id                    string                 `json:"id"`
	FirstName             *string                `json:"first_name"`
	LastName              *string                `json:"last_name"`
	ImageUrl              *string                `json:"image_url"`
	PrimaryEmailAddressId string                 `json:"primary_email_address_id"`
	EmailAddresses        []IdentityEmailAddress `json:"email_addresses"`
}

type IdentityEvent struct {
	Type string            `json:"type"`
	Data IdentityEventData `json:"data"`
}

// primaryEmail prefers the address the provider flags as primary, falling
// back to the first address in the list.
func primaryEmail(data IdentityEventData) (string, bool) {
	if len(data.EmailAddresses) == 0 {
		return "", false
	}
	primary, found := lo.Find(data.EmailAddresses, func(a IdentityEmailAddress) bool {
		return a.Id == data.PrimaryEmailAddressId
	})
	if found {
		return primary.EmailAddress, true
	}
	return data.EmailAddresses[0].EmailAddress, true
}

// displayNameFrom joins the non-empty name parts with a space, nil when both
// are absent.
func displayNameFrom(data IdentityEventData) *string {
	parts := []string{}
	if data.FirstName != nil && *data.FirstName != "" {
		parts = append(parts, *data.FirstName)
	}
	if data.LastName != nil && *data.LastName != "" {
		parts = append(parts, *data.LastName)
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, " ")
	return &name
}

// IdentityWebhook reconciles identity provider notifications against the
// local profile table. The signature middleware already verified the payload;
// every recognized or ignored event answers 200 so the provider stops
// retrying.
func (wc WebController) IdentityWebhook(c *gin.Context) {
	var event IdentityEvent
	if err := c.BindJSON(&event); err != nil {
		slog.Warn("error binding webhook payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	switch event.Type {
	case "user.created":
		email, ok := primaryEmail(event.Data)
		if !ok {
			slog.Error("identity created event has no email addresses", "externalId", event.Data.Id)
			break
		}
		_, err := wc.DB.SyncIdentityCreated(models.IdentityUser{
			ExternalId:  event.Data.Id,
			Email:       email,
			DisplayName: displayNameFrom(event.Data),
			AvatarUrl:   event.Data.ImageUrl,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error syncing identity"})
			return
		}

	case "user.updated":
		email, ok := primaryEmail(event.Data)
		if !ok {
			slog.Error("identity updated event has no email addresses", "externalId", event.Data.Id)
			break
		}
		_, err := wc.DB.SyncIdentityUpdated(models.IdentityUser{
			ExternalId:  event.Data.Id,
			Email:       email,
			DisplayName: displayNameFrom(event.Data),
			AvatarUrl:   event.Data.ImageUrl,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error syncing identity"})
			return
		}

	case "user.deleted":
		if _, err := wc.DB.SyncIdentityDeleted(event.Data.Id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error syncing identity"})
			return
		}

	default:
		slog.Info("ignoring unrecognized identity event", "type", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
