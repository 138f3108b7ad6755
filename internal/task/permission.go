// Package task implements the task lifecycle: creation, listing,
// partial update, status transitions, assignee replacement, deletion.
// All mutation authorization goes through CanModify/CanDelete; nothing
// else in the repository derives task permissions.
package task

import "github.com/hearthapp/hearth/internal/model"

// Actor is the identity a task operation runs as: the caller's
// membership in the task's house.
type Actor struct {
	MemberID int64
	Role     model.Role
}

// CanModify reports whether the actor may update the task, change its
// status, or replace its assignees: the creator, any assignee, or any
// owner.
func CanModify(t *model.Task, actor Actor) bool {
	if actor.Role == model.RoleOwner {
		return true
	}
	if t.CreatedBy != nil && *t.CreatedBy == actor.MemberID {
		return true
	}
	for _, id := range t.AssigneeIDs {
		if id == actor.MemberID {
			return true
		}
	}
	return false
}

// CanDelete reports whether the actor may delete the task. Stricter
// than CanModify: the creator or an owner; being an assignee is not
// enough.
func CanDelete(t *model.Task, actor Actor) bool {
	if actor.Role == model.RoleOwner {
		return true
	}
	return t.CreatedBy != nil && *t.CreatedBy == actor.MemberID
}
