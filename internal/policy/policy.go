// Package policy holds the pure role decisions for house moderation.
// It performs no I/O: callers load the membership set and ask questions.
package policy

import "github.com/hearthapp/hearth/internal/model"

// RoleChange describes the requested change to a membership: either a
// new role, or removal from the house.
type RoleChange struct {
	Remove  bool
	NewRole model.Role
}

// Removed is the change representing taking the member out of the house.
func Removed() RoleChange { return RoleChange{Remove: true} }

// DemotedTo is the change representing a role update.
func DemotedTo(r model.Role) RoleChange { return RoleChange{NewRole: r} }

// CanModerateHouse reports whether a role may update or delete the
// house, remove members, or change member roles. Listing members is
// open to any role and does not go through here.
func CanModerateHouse(role model.Role) bool {
	return role == model.RoleOwner
}

// WouldViolateLastOwner reports whether applying the change to the
// member identified by targetUserID would leave the house without any
// owner. It is the single source of truth for the last-owner rule;
// every removal and every demotion must consult it first.
//
// The rule only bites when the target currently holds the owner role
// and the change takes that role away (removal, or a role change to
// anything but owner).
func WouldViolateLastOwner(members []model.HouseMember, targetUserID int64, change RoleChange) bool {
	var target *model.HouseMember
	owners := 0
	for i := range members {
		if members[i].Role == model.RoleOwner {
			owners++
		}
		if members[i].UserID == targetUserID {
			target = &members[i]
		}
	}

	if target == nil || target.Role != model.RoleOwner {
		return false
	}
	if !change.Remove && change.NewRole == model.RoleOwner {
		return false
	}
	return owners <= 1
}
