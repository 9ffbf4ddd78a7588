package auth

import "testing"

func TestRolePermissionsCoverDefaults(t *testing.T) {
	for _, perm := range RolePermissions[RoleOwner] {
		found := false
		for _, known := range DefaultPermissions {
			if known == perm {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("owner permission %q missing from DefaultPermissions", perm)
		}
	}
}

func TestCan(t *testing.T) {
	cases := []struct {
		role string
		perm string
		want bool
	}{
		{RoleEmployee, PermTimeClockUse, true},
		{RoleEmployee, PermSwapsApprove, false},
		{RoleEmployee, PermShiftsBulk, false},
		{RoleManager, PermSwapsApprove, true},
		{RoleManager, PermOrgWrite, false},
		{RoleAdmin, PermOrgWrite, true},
		{RoleOwner, PermAuditRead, true},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.perm); got != tc.want {
			t.Errorf("Can(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestIsPrivileged(t *testing.T) {
	for _, role := range []string{RoleOwner, RoleAdmin, RoleManager} {
		if !IsPrivileged(role) {
			t.Errorf("expected %s to be privileged", role)
		}
	}
	if IsPrivileged(RoleEmployee) {
		t.Error("employee must not be privileged")
	}
	if IsPrivileged("unknown") {
		t.Error("unknown role must not be privileged")
	}
}
