package model

import (
	"testing"
	"time"
)

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role      string
		donor     bool
		recipient bool
		caregiver bool
		admin     bool
	}{
		{RoleUser, false, false, false, false},
		{RoleDonor, true, false, false, false},
		{RoleRecipient, false, true, false, false},
		{RoleCaregiver, false, false, true, false},
		{RoleAdmin, true, true, true, true},
		{"", false, false, false, false},
		{"moderator", false, false, false, false},
	}
	for _, tc := range cases {
		if got := IsDonor(tc.role); got != tc.donor {
			t.Errorf("IsDonor(%q) = %v, want %v", tc.role, got, tc.donor)
		}
		if got := IsRecipient(tc.role); got != tc.recipient {
			t.Errorf("IsRecipient(%q) = %v, want %v", tc.role, got, tc.recipient)
		}
		if got := IsCaregiver(tc.role); got != tc.caregiver {
			t.Errorf("IsCaregiver(%q) = %v, want %v", tc.role, got, tc.caregiver)
		}
		if got := IsAdmin(tc.role); got != tc.admin {
			t.Errorf("IsAdmin(%q) = %v, want %v", tc.role, got, tc.admin)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleUser, RoleDonor, RoleRecipient, RoleCaregiver, RoleAdmin} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "ADMIN", "owner", "superuser"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, want false", role)
		}
	}
}

func TestIsDeleted(t *testing.T) {
	var u User
	if u.IsDeleted() {
		t.Fatal("fresh user reported as deleted")
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	if !u.IsDeleted() {
		t.Fatal("user with DeletedAt set not reported as deleted")
	}
}
