package models

import (
	"log"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSuite(tb testing.TB) (func(tb testing.TB), *Database) {
	log.Println("setup suite")

	// database file name, foreign keys on so cascades behave like postgres
	dbName := "database_storage_test.db"

	// remove old database
	e := os.Remove(dbName)
	if e != nil {
		if !strings.Contains(e.Error(), "no such file or directory") {
			log.Fatal(e)
		}
	}

	// open and create a new database
	gdb, err := gorm.Open(sqlite.Open("file:"+dbName+"?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal(err)
	}

	database := &Database{GormDB: gdb}
	if err := database.Migrate(); err != nil {
		log.Fatal(err)
	}

	// Return a function to teardown the test
	return func(tb testing.TB) {
		log.Println("teardown suite")
		err = os.Remove(dbName)
		if err != nil {
			log.Fatal(err)
		}
	}, database
}

func createTestProfile(t *testing.T, db *Database, externalId string, email string) *UserProfile {
	profile, err := db.CreateUserProfile(externalId, email, nil, nil, UserTypeLearner)
	assert.NoError(t, err)
	assert.NotNil(t, profile)
	return profile
}

func TestCreateUserProfileDuplicateExternalId(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	createTestProfile(t, db, "user_abc", "a@example.com")

	_, err := db.CreateUserProfile("user_abc", "other@example.com", nil, nil, UserTypePublisher)
	assert.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestGetUserProfileAbsent(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	profile, err := db.GetUserProfile("missing")
	assert.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGenerateUniqueSlugFreshName(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	slug, err := db.GenerateUniqueSlug("Acme Prep")
	assert.NoError(t, err)
	assert.Equal(t, "acme-prep", slug)
}

func TestGenerateUniqueSlugFillsGaps(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	for _, slug := range []string{"acme", "acme-2", "acme-4"} {
		err := db.GormDB.Create(&Organization{Name: "Acme", Slug: slug}).Error
		assert.NoError(t, err)
	}

	slug, err := db.GenerateUniqueSlug("Acme")
	assert.NoError(t, err)
	assert.Equal(t, "acme-3", slug)
}

func TestGenerateUniqueSlugPrefixDoesNotBlockBase(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	err := db.GormDB.Create(&Organization{Name: "Acme Prep", Slug: "acme-prep"}).Error
	assert.NoError(t, err)

	slug, err := db.GenerateUniqueSlug("Acme")
	assert.NoError(t, err)
	assert.Equal(t, "acme", slug)
}

func TestGenerateUniqueSlugFallback(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	fallbackPattern := regexp.MustCompile(`^org-\d+$`)

	slug, err := db.GenerateUniqueSlug("")
	assert.NoError(t, err)
	assert.Regexp(t, fallbackPattern, slug)

	slug, err = db.GenerateUniqueSlug("!@#$%")
	assert.NoError(t, err)
	assert.Regexp(t, fallbackPattern, slug)
}

func TestCreateOrganizationWithOwner(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	owner := createTestProfile(t, db, "user_owner", "owner@example.com")

	org, err := db.CreateOrganizationWithOwner("Acme Prep", nil, nil, owner.ID)
	assert.NoError(t, err)
	assert.Equal(t, "acme-prep", org.Slug)

	role, found, err := db.GetUserOrgRole(owner.ID, org.ID)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, RoleOwner, role)
}

func TestCreateOrganizationWithOwnerRollsBackOnFailure(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	// nonexistent owner makes the membership insert fail, the org insert
	// must roll back with it
	_, err := db.CreateOrganizationWithOwner("Acme Prep", nil, nil, 99999)
	assert.Error(t, err)

	org, err := db.GetOrganizationBySlug("acme-prep")
	assert.NoError(t, err)
	assert.Nil(t, org)
}

func TestMembershipUniquePerOrgAndUser(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	owner := createTestProfile(t, db, "user_owner", "owner@example.com")
	member := createTestProfile(t, db, "user_member", "member@example.com")
	org, err := db.CreateOrganizationWithOwner("Acme", nil, nil, owner.ID)
	assert.NoError(t, err)

	_, err = db.AddOrganizationMember(org.ID, member.ID, RoleViewer)
	assert.NoError(t, err)

	_, err = db.AddOrganizationMember(org.ID, member.ID, RoleEditor)
	assert.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestRequireOrgRole(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	owner := createTestProfile(t, db, "user_owner", "owner@example.com")
	viewer := createTestProfile(t, db, "user_viewer", "viewer@example.com")
	admin := createTestProfile(t, db, "user_admin", "admin@example.com")
	outsider := createTestProfile(t, db, "user_outsider", "outsider@example.com")

	org, err := db.CreateOrganizationWithOwner("Acme", nil, nil, owner.ID)
	assert.NoError(t, err)
	_, err = db.AddOrganizationMember(org.ID, viewer.ID, RoleViewer)
	assert.NoError(t, err)
	_, err = db.AddOrganizationMember(org.ID, admin.ID, RoleAdmin)
	assert.NoError(t, err)

	// not a member at all
	_, err = db.RequireOrgRole(outsider.ID, org.ID, RoleAdmin)
	var roleErr *InsufficientRoleError
	assert.ErrorAs(t, err, &roleErr)
	assert.Equal(t, RoleAdmin, roleErr.Required)
	assert.Equal(t, OrgRole(""), roleErr.Actual)

	// member below the minimum
	_, err = db.RequireOrgRole(viewer.ID, org.ID, RoleAdmin)
	assert.ErrorAs(t, err, &roleErr)
	assert.Equal(t, RoleAdmin, roleErr.Required)
	assert.Equal(t, RoleViewer, roleErr.Actual)

	// member above the minimum
	role, err := db.RequireOrgRole(admin.ID, org.ID, RoleWriter)
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
}

func TestListOrganizationsForUserOrderedByName(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	owner := createTestProfile(t, db, "user_owner", "owner@example.com")

	for _, name := range []string{"Zeta Prep", "Alpha Prep", "Mid Prep"} {
		_, err := db.CreateOrganizationWithOwner(name, nil, nil, owner.ID)
		assert.NoError(t, err)
	}

	orgs, err := db.ListOrganizationsForUser(owner.ID)
	assert.NoError(t, err)
	assert.Len(t, orgs, 3)
	assert.Equal(t, "Alpha Prep", orgs[0].Name)
	assert.Equal(t, "Mid Prep", orgs[1].Name)
	assert.Equal(t, "Zeta Prep", orgs[2].Name)
	for _, o := range orgs {
		assert.Equal(t, RoleOwner, o.Role)
	}
}

func TestDeleteUserProfileRemovesMemberships(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	owner := createTestProfile(t, db, "user_owner", "owner@example.com")
	org, err := db.CreateOrganizationWithOwner("Acme", nil, nil, owner.ID)
	assert.NoError(t, err)

	deleted, err := db.DeleteUserProfileByExternalId("user_owner")
	assert.NoError(t, err)
	assert.True(t, deleted)

	_, found, err := db.GetUserOrgRole(owner.ID, org.ID)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateAndRemoveOrganizationMember(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	owner := createTestProfile(t, db, "user_owner", "owner@example.com")
	member := createTestProfile(t, db, "user_member", "member@example.com")
	org, err := db.CreateOrganizationWithOwner("Acme", nil, nil, owner.ID)
	assert.NoError(t, err)
	_, err = db.AddOrganizationMember(org.ID, member.ID, RoleViewer)
	assert.NoError(t, err)

	updated, err := db.UpdateOrganizationMemberRole(org.ID, member.ID, RoleEditor)
	assert.NoError(t, err)
	assert.Equal(t, RoleEditor, updated.Role)

	removed, err := db.RemoveOrganizationMember(org.ID, member.ID)
	assert.NoError(t, err)
	assert.True(t, removed)

	removed, err = db.RemoveOrganizationMember(org.ID, member.ID)
	assert.NoError(t, err)
	assert.False(t, removed)
}

func TestCreateOrgToken(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	owner := createTestProfile(t, db, "user_owner", "owner@example.com")
	org, err := db.CreateOrganizationWithOwner("Acme", nil, nil, owner.ID)
	assert.NoError(t, err)

	token, err := db.CreateOrgToken(org.ID, AccessTokenType)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(token.Value, "t:"))
	assert.Equal(t, AccessTokenType, token.Type)
}
