package models

import "fmt"

// OrgRole is one of five ordered privilege levels an organization member can hold.
type OrgRole string

const (
	RoleOwner  OrgRole = "owner"
	RoleAdmin  OrgRole = "admin"
	RoleEditor OrgRole = "editor"
	RoleWriter OrgRole = "writer"
	RoleViewer OrgRole = "viewer"
)

// RoleHierarchy orders roles from most to least privileged. Rank is the
// position in this slice; every comparison goes through roleRank, never
// through storage or display order.
var RoleHierarchy = []OrgRole{RoleOwner, RoleAdmin, RoleEditor, RoleWriter, RoleViewer}

func roleRank(role OrgRole) int {
	for i, r := range RoleHierarchy {
		if r == role {
			return i
		}
	}
	return len(RoleHierarchy)
}

func (r OrgRole) Valid() bool {
	return roleRank(r) < len(RoleHierarchy)
}

// HasMinimumRole reports whether role sits at or above minimum in the
// hierarchy. Equal roles always satisfy the check.
func HasMinimumRole(role OrgRole, minimum OrgRole) bool {
	return roleRank(role) <= roleRank(minimum)
}

func CanEditDeck(role OrgRole) bool {
	return HasMinimumRole(role, RoleWriter)
}

func CanPublishDeck(role OrgRole) bool {
	return HasMinimumRole(role, RoleEditor)
}

func CanApproveDeck(role OrgRole) bool {
	return HasMinimumRole(role, RoleEditor)
}

func CanManageMembers(role OrgRole) bool {
	return HasMinimumRole(role, RoleAdmin)
}

// Billing and organization deletion are owner-only. No role outranks owner,
// so these are intent-explicit equality checks rather than hierarchy walks.
func CanManageBilling(role OrgRole) bool {
	return role == RoleOwner
}

func CanDeleteOrganization(role OrgRole) bool {
	return role == RoleOwner
}

// InsufficientRoleError is returned by RequireOrgRole. Actual is empty when
// the user is not a member of the organization at all, which lets callers
// tell "not a member" from "member with too little privilege".
type InsufficientRoleError struct {
	Required OrgRole
	Actual   OrgRole
}

func (e *InsufficientRoleError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("requires role %s or above, user is not a member", e.Required)
	}
	return fmt.Sprintf("requires role %s or above, user has role %s", e.Required, e.Actual)
}
