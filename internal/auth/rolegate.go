package auth

import (
	"go-newsroom/internal/apperr"
	"slices"
)

// Authorize decides whether actor may act on res given the roles an operation
// requires. It is a pure function: nil means allow.
//
// An author additionally needs to own res when res has an ownership notion;
// broader roles skip the ownership check. Gate.Authorize runs the role part
// before consulting the capability model.
func Authorize(actor *Actor, requiredRoles []Role, res *Resource) error {
	if actor == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if !slices.Contains(requiredRoles, actor.Role) {
		return apperr.Forbidden("role %s is not allowed to perform this operation", actor.Role)
	}
	if actor.Role == RoleAuthor && res != nil && res.Owned && !res.ownedBy(actor.ID) {
		return apperr.Forbidden("authors may only modify their own content")
	}
	return nil
}
