// Package policy decides who may act on a task.
//
// The rule is fixed: the owner of a task, or any admin, may read, update
// or delete it. Listing is scoped rather than checked per item: non-admins
// always see their own tasks, admins see their own unless they explicitly
// ask for every owner.
package policy

import "taskboard/internal/domain/model"

type Decision bool

const (
	Allowed Decision = true
	Denied  Decision = false
)

func (d Decision) String() string {
	if d {
		return "allowed"
	}
	return "denied"
}

// Authorize applies the owner-or-admin rule. principal must be the freshly
// loaded user record, never claims taken from a token.
func Authorize(principal *model.User, ownerID string) Decision {
	if principal == nil || principal.ID == "" {
		return Denied
	}
	switch principal.Role {
	case model.RoleAdmin:
		return Allowed
	case model.RoleUser:
		if ownerID != "" && principal.ID == ownerID {
			return Allowed
		}
		return Denied
	default:
		return Denied
	}
}

// ListScope returns the owner id a task listing must be restricted to, or
// "" when principal may see all owners. Without a principal the listing is
// denied outright.
func ListScope(principal *model.User, allOwners bool) (string, Decision) {
	if principal == nil || principal.ID == "" {
		return "", Denied
	}
	switch principal.Role {
	case model.RoleAdmin:
		if allOwners {
			return "", Allowed
		}
		return principal.ID, Allowed
	case model.RoleUser:
		return principal.ID, Allowed
	default:
		return "", Denied
	}
}
