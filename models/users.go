package models

import (
	"time"

	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeLearner   UserType = "learner"
	UserTypePublisher UserType = "publisher"
)

func (t UserType) Valid() bool {
	return t == UserTypeLearner || t == UserTypePublisher
}

// UserProfile is the local account for one externally managed identity.
// ExternalId is the identity provider's subject id, exactly one profile per subject.
type UserProfile struct {
	gorm.Model
	ExternalId  string `gorm:"uniqueIndex:idx_user_external_id"`
	Email       string
	DisplayName *string
	AvatarUrl   *string
	UserType    UserType `gorm:"default:'learner'"`
}

func (u *UserProfile) MapToJsonStruct() interface{} {
	return struct {
		Id          uint    `json:"id"`
		Email       string  `json:"email"`
		DisplayName *string `json:"display_name"`
		AvatarUrl   *string `json:"avatar_url"`
		UserType    string  `json:"user_type"`
		CreatedAt   string  `json:"created_at"`
		UpdatedAt   string  `json:"updated_at"`
	}{
		Id:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarUrl:   u.AvatarUrl,
		UserType:    string(u.UserType),
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
