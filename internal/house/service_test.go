package house

import (
	"testing"

	"github.com/hearthapp/hearth/internal/apperr"
	"github.com/hearthapp/hearth/internal/database"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/store"
)

type testEnv struct {
	svc    *Service
	houses *store.HouseStore
	users  *store.UserStore
	tasks  *store.TaskStore
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	houses := store.NewHouseStore(db)
	tasks := store.NewTaskStore(db)
	return &testEnv{
		svc:    NewService(houses, tasks),
		houses: houses,
		users:  store.NewUserStore(db),
		tasks:  tasks,
	}
}

func (e *testEnv) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := e.users.Create(email, "Test User", "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func TestServiceCreateValidatesName(t *testing.T) {
	env := setupServiceTest(t)
	u := env.user(t, "alice@example.com")

	cases := []struct {
		name      string
		houseName string
	}{
		{"too short", "ab"},
		{"too long", "this name is way past twenty"},
		{"bad characters", "home!!!"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(u.ID, tc.houseName, "", "Alice")
			if !apperr.IsKind(err, apperr.KindUnprocessable) {
				t.Errorf("Create(%q) error = %v, want unprocessable", tc.houseName, err)
			}
		})
	}

	h, err := env.svc.Create(u.ID, "  Maple House  ", "cozy", "Alice")
	if err != nil {
		t.Fatalf("create valid house: %v", err)
	}
	if h.Name != "Maple House" {
		t.Errorf("name = %q, want trimmed %q", h.Name, "Maple House")
	}
}

func TestServiceCreateRequiresDisplayName(t *testing.T) {
	env := setupServiceTest(t)
	u := env.user(t, "alice@example.com")

	_, err := env.svc.Create(u.ID, "Maple House", "", "   ")
	if !apperr.IsKind(err, apperr.KindUnprocessable) {
		t.Errorf("error = %v, want unprocessable", err)
	}
}

func TestServiceCreatorBecomesOwner(t *testing.T) {
	env := setupServiceTest(t)
	u := env.user(t, "alice@example.com")

	h, err := env.svc.Create(u.ID, "Maple House", "", "Alice")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}

	m, err := env.houses.GetMember(h.ID, u.ID)
	if err != nil || m == nil {
		t.Fatalf("get member: m=%v err=%v", m, err)
	}
	if m.Role != model.RoleOwner {
		t.Errorf("role = %q, want %q", m.Role, model.RoleOwner)
	}
}

func TestServiceAddMemberDuplicate(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	other := env.user(t, "bob@example.com")

	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")
	if _, err := env.svc.AddMember(h.ID, other.ID, "Bob"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	_, err := env.svc.AddMember(h.ID, other.ID, "Bobby")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}

	// A fresh user colliding on display name is also a conflict.
	third := env.user(t, "carol@example.com")
	_, err = env.svc.AddMember(h.ID, third.ID, "Bob")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestServiceRemoveLastOwner(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")

	err := env.svc.RemoveMember(h.ID, owner.ID)
	if !apperr.IsKind(err, apperr.KindUnprocessable) {
		t.Errorf("error = %v, want unprocessable", err)
	}

	m, _ := env.houses.GetMember(h.ID, owner.ID)
	if m == nil {
		t.Fatal("sole owner should still be a member")
	}
}

func TestServiceRemoveMemberNotFound(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")

	err := env.svc.RemoveMember(h.ID, 999)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestServiceRemoveMemberDetachesAssignments(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	other := env.user(t, "bob@example.com")

	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")
	m, err := env.svc.AddMember(h.ID, other.ID, "Bob")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}

	created, err := env.tasks.CreateWithAssignees(h.ID, m.ID, store.CreateTaskParams{
		Title:       "Dishes",
		Priority:    model.PriorityMedium,
		AssigneeIDs: []int64{m.ID},
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := env.svc.RemoveMember(h.ID, other.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	// The task survives the member, unassigned.
	got, err := env.tasks.GetByID(created.ID, h.ID)
	if err != nil || got == nil {
		t.Fatalf("get task: t=%v err=%v", got, err)
	}
	if len(got.AssigneeIDs) != 0 {
		t.Errorf("assignees after removal = %v, want none", got.AssigneeIDs)
	}
}

func TestServiceDemoteLastOwner(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")

	_, err := env.svc.UpdateMemberRole(h.ID, owner.ID, model.RoleMember)
	if !apperr.IsKind(err, apperr.KindUnprocessable) {
		t.Errorf("error = %v, want unprocessable", err)
	}
}

func TestServicePromoteThenDemote(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	other := env.user(t, "bob@example.com")

	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")
	env.svc.AddMember(h.ID, other.ID, "Bob")

	promoted, err := env.svc.UpdateMemberRole(h.ID, other.ID, model.RoleOwner)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.Role != model.RoleOwner {
		t.Errorf("role = %q, want %q", promoted.Role, model.RoleOwner)
	}
	if promoted.UserEmail != "bob@example.com" {
		t.Errorf("user email = %q, want %q", promoted.UserEmail, "bob@example.com")
	}

	// Now the original owner can step down, and afterwards Bob is the
	// last owner and locked in.
	if _, err := env.svc.UpdateMemberRole(h.ID, owner.ID, model.RoleMember); err != nil {
		t.Fatalf("demote original owner: %v", err)
	}
	_, err = env.svc.UpdateMemberRole(h.ID, other.ID, model.RoleMember)
	if !apperr.IsKind(err, apperr.KindUnprocessable) {
		t.Errorf("error = %v, want unprocessable", err)
	}
}

func TestServiceUpdateMemberRoleRejectsUnknownRole(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")

	_, err := env.svc.UpdateMemberRole(h.ID, owner.ID, model.Role("admin"))
	if !apperr.IsKind(err, apperr.KindUnprocessable) {
		t.Errorf("error = %v, want unprocessable", err)
	}
}

func TestServiceGetDetail(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	other := env.user(t, "bob@example.com")

	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")
	env.svc.AddMember(h.ID, other.ID, "Bob")

	detail, err := env.svc.GetDetail(h.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.MemberCount != 2 {
		t.Errorf("member count = %d, want 2", detail.MemberCount)
	}
	if len(detail.Members) != 2 {
		t.Errorf("members = %d, want 2", len(detail.Members))
	}
	if detail.Members[0].UserEmail != "alice@example.com" {
		t.Errorf("first member email = %q", detail.Members[0].UserEmail)
	}

	_, err = env.svc.GetDetail(999)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestServiceIsDisplayNameAvailable(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.user(t, "alice@example.com")
	h, _ := env.svc.Create(owner.ID, "Maple House", "", "Alice")

	available, err := env.svc.IsDisplayNameAvailable(h.ID, "Alice", nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if available {
		t.Error("Alice should be taken")
	}

	available, _ = env.svc.IsDisplayNameAvailable(h.ID, "Alice", &owner.ID)
	if !available {
		t.Error("Alice should be available to its own holder")
	}
}
