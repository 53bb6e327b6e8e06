package models

import "log/slog"

// IdentityUser is the provider-neutral shape of an identity notification,
// already reduced to a primary email and derived display name.
type IdentityUser struct {
	ExternalId  string
	Email       string
	DisplayName *string
	AvatarUrl   *string
}

// SyncIdentityCreated reconciles a "user created" notification. An existing
// profile for the external id is a no-op, and a duplicate-key on insert is
// the expected outcome of two concurrent deliveries, so both count as success.
func (db *Database) SyncIdentityCreated(u IdentityUser) (*UserProfile, error) {
	existing, err := db.GetUserProfile(u.ExternalId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Info("identity already synced, skipping create", "externalId", u.ExternalId)
		return existing, nil
	}

	profile, err := db.CreateUserProfile(u.ExternalId, u.Email, u.DisplayName, u.AvatarUrl, UserTypeLearner)
	if err != nil {
		if IsUniqueViolation(err) {
			slog.Info("concurrent identity create, treating as success", "externalId", u.ExternalId)
			return db.GetUserProfile(u.ExternalId)
		}
		return nil, err
	}
	return profile, nil
}

// SyncIdentityUpdated reconciles a "user updated" notification. A missing
// profile delegates to the created handling, which makes out-of-order
// delivery safe. Only fields that actually differ are written; when nothing
// differs no write happens at all, UpdatedAt included.
func (db *Database) SyncIdentityUpdated(u IdentityUser) (*UserProfile, error) {
	profile, err := db.GetUserProfile(u.ExternalId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		slog.Info("update for unknown identity, creating profile", "externalId", u.ExternalId)
		return db.SyncIdentityCreated(u)
	}

	updates := map[string]interface{}{}
	if profile.Email != u.Email {
		updates["email"] = u.Email
	}
	if !strPtrEqual(profile.DisplayName, u.DisplayName) {
		updates["display_name"] = u.DisplayName
	}
	if !strPtrEqual(profile.AvatarUrl, u.AvatarUrl) {
		updates["avatar_url"] = u.AvatarUrl
	}
	if len(updates) == 0 {
		slog.Debug("identity unchanged, no write", "externalId", u.ExternalId)
		return profile, nil
	}

	result := db.GormDB.Model(profile).Updates(updates)
	if result.Error != nil {
		slog.Error("failed to sync identity update",
			"externalId", u.ExternalId,
			"error", result.Error)
		return nil, result.Error
	}
	slog.Info("identity update synced",
		"userId", profile.ID,
		"externalId", u.ExternalId,
		"changedFields", len(updates))
	return profile, nil
}

// SyncIdentityDeleted reconciles a "user deleted" notification. A missing
// profile is a successful no-op.
func (db *Database) SyncIdentityDeleted(externalId string) (bool, error) {
	deleted, err := db.DeleteUserProfileByExternalId(externalId)
	if err != nil {
		return false, err
	}
	if !deleted {
		slog.Info("delete for unknown identity, nothing to do", "externalId", externalId)
	}
	return deleted, nil
}

func strPtrEqual(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
