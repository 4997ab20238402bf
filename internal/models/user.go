// Package models defines the data structures that map to database tables
// and the small domain rules that operate on them.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level carried in the auth provider's app metadata.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// CanModerate returns true for roles allowed to approve feedback.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Profile is the public identity of an author or reviewer. Rows are created
// lazily the first time an identity signs in.
type Profile struct {
	ID                uuid.UUID `json:"id"`
	Username          *string   `json:"username"`
	FullName          *string   `json:"full_name"`
	AvatarURL         *string   `json:"avatar_url"`
	Bio               *string   `json:"bio"`
	Location          *string   `json:"location"`
	ContributionCount int       `json:"contribution_count"`
	VerificationCount int       `json:"verification_count"`
	TrustScore        int       `json:"trust_score"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AuthorRef is the embedded author shape on content and feedback.
type AuthorRef struct {
	ID        uuid.UUID `json:"id"`
	Username  *string   `json:"username"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
}
