package auth

import (
	"sort"
	"strings"
)

// Authority is a string capability checked against an endpoint's
// requirement, e.g. "ADMIN" (a role authority) or "DEVICE:WRITE"
// (a permission authority).
type Authority string

// RoleAuthority derives the authority string of a role: its name upper-cased.
func RoleAuthority(role Role) Authority {
	return Authority(strings.ToUpper(role.Name))
}

// PermissionAuthority derives the authority string of a permission:
// "RESOURCE:OPERATION", both parts upper-cased.
func PermissionAuthority(perm Permission) Authority {
	return Authority(strings.ToUpper(perm.Resource) + ":" + strings.ToUpper(perm.Operation))
}

// AuthoritySet is the resolved set of authorities held by a principal.
type AuthoritySet map[Authority]struct{}

// Has reports whether the set contains the given authority.
func (s AuthoritySet) Has(a Authority) bool {
	_, ok := s[a]
	return ok
}

// Sorted returns the authorities in lexical order, for stable API output.
func (s AuthoritySet) Sorted() []Authority {
	out := make([]Authority, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AuthoritiesOf computes the full authority set for a principal's role:
// the role authority unioned with every permission authority. The result
// is deterministic for unchanged role and permission data, regardless of
// the order permissions were retrieved in.
func AuthoritiesOf(role Role, perms []Permission) AuthoritySet {
	set := make(AuthoritySet, len(perms)+1)
	set[RoleAuthority(role)] = struct{}{}
	for _, p := range perms {
		set[PermissionAuthority(p)] = struct{}{}
	}
	return set
}
