package auth

import (
	"reflect"
	"testing"
)

func TestRoleAuthority(t *testing.T) {
	tests := []struct {
		name string
		want Authority
	}{
		{"admin", "ADMIN"},
		{"user", "USER"},
		{"Night-Shift", "NIGHT-SHIFT"},
	}
	for _, tt := range tests {
		if got := RoleAuthority(Role{Name: tt.name}); got != tt.want {
			t.Errorf("RoleAuthority(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPermissionAuthority(t *testing.T) {
	got := PermissionAuthority(Permission{Resource: "device", Operation: "write"})
	if got != "DEVICE:WRITE" {
		t.Errorf("PermissionAuthority() = %q, want %q", got, "DEVICE:WRITE")
	}
}

func TestAuthoritiesOf(t *testing.T) {
	role := Role{Name: "user"}
	perms := []Permission{
		{Resource: "device", Operation: "read"},
		{Resource: "device", Operation: "write"},
		{Resource: "room", Operation: "read"},
	}

	set := AuthoritiesOf(role, perms)

	for _, a := range []Authority{"USER", "DEVICE:READ", "DEVICE:WRITE", "ROOM:READ"} {
		if !set.Has(a) {
			t.Errorf("set should contain %q", a)
		}
	}
	if set.Has("ADMIN") {
		t.Error("set should not contain ADMIN")
	}
	if len(set) != 4 {
		t.Errorf("set size = %d, want 4", len(set))
	}
}

func TestAuthoritiesOf_DuplicatePermissions(t *testing.T) {
	role := Role{Name: "user"}
	perms := []Permission{
		{Resource: "device", Operation: "read"},
		{Resource: "DEVICE", Operation: "READ"},
	}

	set := AuthoritiesOf(role, perms)
	if len(set) != 2 {
		t.Errorf("case-insensitive duplicates should collapse, set size = %d, want 2", len(set))
	}
}

func TestAuthoritySet_Sorted(t *testing.T) {
	set := AuthoritiesOf(Role{Name: "user"}, []Permission{
		{Resource: "room", Operation: "read"},
		{Resource: "device", Operation: "write"},
	})

	want := []Authority{"DEVICE:WRITE", "ROOM:READ", "USER"}
	if got := set.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}
