package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization is a tenant container for deck ownership. Slug is globally
// unique and stable once assigned.
type Organization struct {
	gorm.Model
	Name        string `gorm:"index:idx_organization_name"`
	Slug        string `gorm:"uniqueIndex:idx_organization_slug"`
	Description *string
	LogoUrl     *string
}

func (o *Organization) MapToJsonStruct() interface{} {
	return struct {
		Id          uint    `json:"id"`
		Name        string  `json:"name"`
		Slug        string  `json:"slug"`
		Description *string `json:"description"`
		LogoUrl     *string `json:"logo_url"`
		CreatedAt   string  `json:"created_at"`
		UpdatedAt   string  `json:"updated_at"`
	}{
		Id:          o.ID,
		Name:        o.Name,
		Slug:        o.Slug,
		Description: o.Description,
		LogoUrl:     o.LogoUrl,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// OrganizationMember binds one user to one organization at a single role.
// A user holds at most one role per organization; the membership row has no
// lifecycle of its own and goes away with either parent.
type OrganizationMember struct {
	gorm.Model
	OrganizationID uint          `gorm:"uniqueIndex:idx_org_member"`
	Organization   *Organization `gorm:"constraint:OnDelete:CASCADE"`
	UserID         uint          `gorm:"uniqueIndex:idx_org_member"`
	User           *UserProfile  `gorm:"constraint:OnDelete:CASCADE"`
	Role           OrgRole
}

// OrgToken is an organization-scoped API token issued by admins.
type OrgToken struct {
	gorm.Model
	Value          string `gorm:"uniqueIndex:idx_org_token"`
	OrganizationID uint
	Organization   *Organization `gorm:"constraint:OnDelete:CASCADE"`
	Type           string
}

const (
	AccessTokenType = "access"
	AdminTokenType  = "admin"
)
