package task

import (
	"testing"

	"github.com/hearthapp/hearth/internal/model"
)

func taskBy(creator int64, assignees ...int64) *model.Task {
	return &model.Task{ID: 1, HouseID: 1, CreatedBy: &creator, AssigneeIDs: assignees}
}

func TestCanModify(t *testing.T) {
	tk := taskBy(100, 200)

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"creator", Actor{MemberID: 100, Role: model.RoleMember}, true},
		{"assignee", Actor{MemberID: 200, Role: model.RoleMember}, true},
		{"owner bystander", Actor{MemberID: 300, Role: model.RoleOwner}, true},
		{"member bystander", Actor{MemberID: 300, Role: model.RoleMember}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tk, tt.actor); got != tt.want {
				t.Errorf("CanModify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	tk := taskBy(100, 200)

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"creator", Actor{MemberID: 100, Role: model.RoleMember}, true},
		{"assignee only", Actor{MemberID: 200, Role: model.RoleMember}, false},
		{"owner bystander", Actor{MemberID: 300, Role: model.RoleOwner}, true},
		{"member bystander", Actor{MemberID: 300, Role: model.RoleMember}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanDelete(tk, tt.actor); got != tt.want {
				t.Errorf("CanDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPermissionsWithRemovedCreator(t *testing.T) {
	// The creator's membership was removed; created_by went null.
	tk := &model.Task{ID: 1, HouseID: 1, AssigneeIDs: []int64{200}}

	if CanDelete(tk, Actor{MemberID: 100, Role: model.RoleMember}) {
		t.Error("nil creator must not match any member")
	}
	if !CanDelete(tk, Actor{MemberID: 100, Role: model.RoleOwner}) {
		t.Error("owner can still delete orphaned tasks")
	}
	if !CanModify(tk, Actor{MemberID: 200, Role: model.RoleMember}) {
		t.Error("assignee can still modify orphaned tasks")
	}
}
