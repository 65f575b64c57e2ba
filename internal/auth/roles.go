package auth

import "fmt"

// Role is the closed set of editorial roles. It is fixed for a session.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleEditor      Role = "editor"
	RoleAuthor      Role = "author"
	RoleContributor Role = "contributor"
)

// Roles lists every role, broadest first.
var Roles = []Role{RoleSuperAdmin, RoleEditor, RoleAuthor, RoleContributor}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated principal behind a request.
type Actor struct {
	ID   int64
	Role Role
}

// Resource describes the target of an operation for ownership checks.
// Owned is false for entities without an ownership notion.
type Resource struct {
	Owned   bool
	OwnerID *int64
}

// OwnedBy builds a Resource for content with an ownership notion.
func OwnedBy(ownerID *int64) *Resource {
	return &Resource{Owned: true, OwnerID: ownerID}
}

func (r *Resource) ownedBy(actorID int64) bool {
	return r.OwnerID != nil && *r.OwnerID == actorID
}
