package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestRoleCanModerate(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleModerator, true},
		{RoleMember, false},
		{Role(""), false},
	}
	for _, tt := range tests {
		if got := tt.role.CanModerate(); got != tt.want {
			t.Errorf("Role(%q).CanModerate() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestIsAuthoredBy(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	r := &Remedy{AuthorID: &owner}
	if !r.IsAuthoredBy(owner) {
		t.Error("remedy should be authored by owner")
	}
	if r.IsAuthoredBy(other) {
		t.Error("remedy should not be authored by other")
	}

	orphan := &Story{}
	if orphan.IsAuthoredBy(owner) {
		t.Error("story without author should not match anyone")
	}
}
