package models

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dchest/uniuri"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/deckprep/backend/utils"
)

// IsUniqueViolation is the single place that recognizes the store's
// uniqueness-constraint signal. Callers treat a positive result as a
// domain-level "already exists" outcome and re-throw everything else.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (db *Database) GetUserProfile(externalId string) (*UserProfile, error) {
	profile := &UserProfile{}
	result := db.GormDB.Take(profile, "external_id = ?", externalId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("user profile not found", "externalId", externalId)
			return nil, nil
		}
		slog.Error("error fetching user profile",
			"externalId", externalId,
			"error", result.Error)
		return nil, result.Error
	}
	return profile, nil
}

func (db *Database) GetUserProfileById(userId uint) (*UserProfile, error) {
	profile := &UserProfile{}
	result := db.GormDB.Take(profile, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("error fetching user profile", "userId", userId, "error", result.Error)
		return nil, result.Error
	}
	return profile, nil
}

func (db *Database) CreateUserProfile(externalId string, email string, displayName *string, avatarUrl *string, userType UserType) (*UserProfile, error) {
	profile := &UserProfile{
		ExternalId:  externalId,
		Email:       email,
		DisplayName: displayName,
		AvatarUrl:   avatarUrl,
		UserType:    userType,
	}
	result := db.GormDB.Create(profile)
	if result.Error != nil {
		if !IsUniqueViolation(result.Error) {
			slog.Error("failed to create user profile",
				"externalId", externalId,
				"email", email,
				"error", result.Error)
		}
		return nil, result.Error
	}
	slog.Info("user profile created",
		"userId", profile.ID,
		"externalId", externalId,
		"email", email,
		"userType", userType)
	return profile, nil
}

func (db *Database) UpdateUserProfile(profile *UserProfile) error {
	result := db.GormDB.Save(profile)
	if result.Error != nil {
		slog.Error("failed to update user profile",
			"userId", profile.ID,
			"error", result.Error)
		return result.Error
	}
	slog.Info("user profile updated", "userId", profile.ID)
	return nil
}

// DeleteUserProfileByExternalId removes the profile and its membership rows in
// one transaction, so no membership can outlive its user even on stores that
// do not enforce the declared cascade. Returns false when no profile existed.
func (db *Database) DeleteUserProfileByExternalId(externalId string) (bool, error) {
	profile, err := db.GetUserProfile(externalId)
	if err != nil {
		return false, err
	}
	if profile == nil {
		return false, nil
	}

	err = db.GormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", profile.ID).Delete(&OrganizationMember{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(profile).Error
	})
	if err != nil {
		slog.Error("failed to delete user profile", "externalId", externalId, "error", err)
		return false, err
	}
	slog.Info("user profile deleted", "userId", profile.ID, "externalId", externalId)
	return true, nil
}

func (db *Database) GetOrganizationById(orgId uint) (*Organization, error) {
	org := &Organization{}
	result := db.GormDB.Take(org, "id = ?", orgId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("error fetching organization", "orgId", orgId, "error", result.Error)
		return nil, result.Error
	}
	return org, nil
}

func (db *Database) GetOrganizationBySlug(slug string) (*Organization, error) {
	org := &Organization{}
	result := db.GormDB.Take(org, "slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("organization not found", "slug", slug)
			return nil, nil
		}
		slog.Error("error fetching organization", "slug", slug, "error", result.Error)
		return nil, result.Error
	}
	return org, nil
}

// GenerateUniqueSlug allocates the lowest free slug for name. With existing
// slugs {base, base-2, base-4} it returns base-3, filling numbering gaps
// rather than appending after the maximum. The result is only a candidate:
// the unique constraint on organizations.slug stays the final arbiter, and a
// duplicate-key on insert is a retryable conflict, not a generator bug.
func (db *Database) GenerateUniqueSlug(name string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		slug := fmt.Sprintf("org-%d", time.Now().UnixMilli())
		slog.Debug("name has no slug-able characters, using fallback", "name", name, "slug", slug)
		return slug, nil
	}

	var existing []string
	err := db.GormDB.Model(&Organization{}).Where("slug LIKE ?", base+"%").Pluck("slug", &existing).Error
	if err != nil {
		slog.Error("error fetching existing slugs", "base", base, "error", err)
		return "", err
	}

	taken := lo.SliceToMap(existing, func(s string) (string, bool) { return s, true })
	if !taken[base] {
		return base, nil
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

// CreateOrganizationWithOwner inserts the organization and its owner
// membership in a single transaction; either both rows exist afterwards or
// neither does.
func (db *Database) CreateOrganizationWithOwner(name string, description *string, logoUrl *string, ownerId uint) (*Organization, error) {
	slug, err := db.GenerateUniqueSlug(name)
	if err != nil {
		return nil, err
	}

	org := &Organization{
		Name:        name,
		Slug:        slug,
		Description: description,
		LogoUrl:     logoUrl,
	}
	err = db.GormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		member := &OrganizationMember{
			OrganizationID: org.ID,
			UserID:         ownerId,
			Role:           RoleOwner,
		}
		return tx.Create(member).Error
	})
	if err != nil {
		if !IsUniqueViolation(err) {
			slog.Error("failed to create organization",
				"name", name,
				"slug", slug,
				"ownerId", ownerId,
				"error", err)
		}
		return nil, err
	}

	slog.Info("organization created",
		"orgId", org.ID,
		"name", name,
		"slug", slug,
		"ownerId", ownerId)
	return org, nil
}

// GetUserOrgRole looks up the caller's role within an organization. A missing
// membership row is reported through the bool, not as an error.
func (db *Database) GetUserOrgRole(userId uint, orgId uint) (OrgRole, bool, error) {
	member := &OrganizationMember{}
	result := db.GormDB.Take(member, "organization_id = ? AND user_id = ?", orgId, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		slog.Error("error fetching organization membership",
			"userId", userId,
			"orgId", orgId,
			"error", result.Error)
		return "", false, result.Error
	}
	return member.Role, true, nil
}

// RequireOrgRole is the single enforcement point before any org-scoped
// mutation. It never fails open: absent membership and insufficient role both
// come back as *InsufficientRoleError carrying the required and actual roles.
func (db *Database) RequireOrgRole(userId uint, orgId uint, minimum OrgRole) (OrgRole, error) {
	role, found, err := db.GetUserOrgRole(userId, orgId)
	if err != nil {
		return "", err
	}
	if !found {
		slog.Info("organization access denied, not a member",
			"userId", userId,
			"orgId", orgId,
			"requiredRole", minimum)
		return "", &InsufficientRoleError{Required: minimum}
	}
	if !HasMinimumRole(role, minimum) {
		slog.Info("organization access denied, insufficient role",
			"userId", userId,
			"orgId", orgId,
			"requiredRole", minimum,
			"actualRole", role)
		return "", &InsufficientRoleError{Required: minimum, Actual: role}
	}
	return role, nil
}

type OrganizationWithRole struct {
	Organization
	Role OrgRole
}

// ListOrganizationsForUser returns every organization the user belongs to,
// ordered by name, each with the user's role.
func (db *Database) ListOrganizationsForUser(userId uint) ([]OrganizationWithRole, error) {
	var orgs []OrganizationWithRole
	err := db.GormDB.Model(&Organization{}).
		Select("organizations.*, organization_members.role").
		Joins("INNER JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ?", userId).
		Order("organizations.name").
		Find(&orgs).Error
	if err != nil {
		slog.Error("error fetching organizations for user", "userId", userId, "error", err)
		return nil, err
	}
	return orgs, nil
}

func (db *Database) AddOrganizationMember(orgId uint, userId uint, role OrgRole) (*OrganizationMember, error) {
	member := &OrganizationMember{
		OrganizationID: orgId,
		UserID:         userId,
		Role:           role,
	}
	result := db.GormDB.Create(member)
	if result.Error != nil {
		if !IsUniqueViolation(result.Error) {
			slog.Error("failed to add organization member",
				"orgId", orgId,
				"userId", userId,
				"role", role,
				"error", result.Error)
		}
		return nil, result.Error
	}
	slog.Info("organization member added",
		"orgId", orgId,
		"userId", userId,
		"role", role)
	return member, nil
}

func (db *Database) UpdateOrganizationMemberRole(orgId uint, userId uint, role OrgRole) (*OrganizationMember, error) {
	member := &OrganizationMember{}
	result := db.GormDB.Take(member, "organization_id = ? AND user_id = ?", orgId, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("error fetching organization member", "orgId", orgId, "userId", userId, "error", result.Error)
		return nil, result.Error
	}

	member.Role = role
	if err := db.GormDB.Save(member).Error; err != nil {
		slog.Error("failed to update member role",
			"orgId", orgId,
			"userId", userId,
			"role", role,
			"error", err)
		return nil, err
	}
	slog.Info("organization member role updated",
		"orgId", orgId,
		"userId", userId,
		"role", role)
	return member, nil
}

func (db *Database) RemoveOrganizationMember(orgId uint, userId uint) (bool, error) {
	result := db.GormDB.Unscoped().
		Where("organization_id = ? AND user_id = ?", orgId, userId).
		Delete(&OrganizationMember{})
	if result.Error != nil {
		slog.Error("failed to remove organization member",
			"orgId", orgId,
			"userId", userId,
			"error", result.Error)
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	slog.Info("organization member removed", "orgId", orgId, "userId", userId)
	return true, nil
}

func (db *Database) CreateOrgToken(orgId uint, tokenType string) (*OrgToken, error) {
	token := &OrgToken{
		Value:          "t:" + uniuri.NewLen(32),
		OrganizationID: orgId,
		Type:           tokenType,
	}
	result := db.GormDB.Create(token)
	if result.Error != nil {
		slog.Error("failed to create org token",
			"orgId", orgId,
			"type", tokenType,
			"error", result.Error)
		return nil, result.Error
	}
	slog.Info("org token issued", "orgId", orgId, "tokenId", token.ID, "type", tokenType)
	return token, nil
}
