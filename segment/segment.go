package segment

import (
	"log/slog"
	"os"

	"github.com/segmentio/analytics-go/v3"
	"github.com/spf13/cast"

	"github.com/deckprep/backend/models"
)

var client analytics.Client = nil

func getClient() analytics.Client {
	segmentApiKey := os.Getenv("SEGMENT_API_KEY")
	if segmentApiKey == "" {
		slog.Debug("Not initializing segment because SEGMENT_API_KEY is missing")
		return nil
	}
	if client == nil {
		client = analytics.New(segmentApiKey)
	}
	return client
}

func CloseClient() {
	if client == nil {
		return
	}
	client.Close()
}

func IdentifyProfile(profile *models.UserProfile) {
	getClient()
	if client == nil {
		return
	}
	slog.Debug("Identifying profile", "userId", profile.ID)
	traits := analytics.NewTraits().
		SetEmail(profile.Email).
		Set("userType", string(profile.UserType))
	if profile.DisplayName != nil {
		traits.SetName(*profile.DisplayName)
	}
	client.Enqueue(analytics.Identify{
		UserId: profile.ExternalId,
		Traits: traits,
	})
}

func TrackOrgCreated(org *models.Organization, profile *models.UserProfile) {
	getClient()
	if client == nil {
		return
	}
	slog.Debug("Tracking organization creation", "orgId", org.ID, "userId", profile.ID)
	client.Enqueue(analytics.Track{
		Event:  "organization_created",
		UserId: profile.ExternalId,
		Properties: analytics.NewProperties().
			Set("org_id", cast.ToString(org.ID)).
			Set("org_slug", org.Slug).
			Set("org_name", org.Name),
	})
}
