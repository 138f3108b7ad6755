package store

import (
	"testing"

	"github.com/hearthapp/hearth/internal/database"
	"github.com/hearthapp/hearth/internal/model"
)

func setupHouseTestDB(t *testing.T) (*HouseStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseStore(db), NewUserStore(db)
}

func mustCreateUser(t *testing.T, us *UserStore, email string) *model.User {
	t.Helper()
	u, err := us.Create(email, "Test User", "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func TestHouseCreateWithOwner(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	u := mustCreateUser(t, us, "alice@example.com")

	h, err := hs.CreateWithOwner("Maple House", "our place", u.ID, "Alice")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	if h.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if h.Name != "Maple House" {
		t.Errorf("name = %q, want %q", h.Name, "Maple House")
	}

	m, err := hs.GetMember(h.ID, u.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m == nil {
		t.Fatal("expected creator membership")
	}
	if m.Role != model.RoleOwner {
		t.Errorf("role = %q, want %q", m.Role, model.RoleOwner)
	}
	if m.DisplayName != "Alice" {
		t.Errorf("display name = %q, want %q", m.DisplayName, "Alice")
	}
}

func TestHouseGetByIDNotFound(t *testing.T) {
	hs, _ := setupHouseTestDB(t)

	h, err := hs.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if h != nil {
		t.Error("expected nil for nonexistent house")
	}
}

func TestHouseUpdatePartial(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	u := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.CreateWithOwner("Old Name", "old description", u.ID, "Alice")

	name := "New Name"
	updated, err := hs.Update(h.ID, &name, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("name = %q, want %q", updated.Name, "New Name")
	}
	if updated.Description != "old description" {
		t.Errorf("description = %q, want unchanged %q", updated.Description, "old description")
	}
}

func TestHouseDeleteCascades(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	u := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.CreateWithOwner("To Delete", "", u.ID, "Alice")

	if err := hs.Delete(h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := hs.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}

	m, err := hs.GetMember(h.ID, u.ID)
	if err != nil {
		t.Fatalf("get member after delete: %v", err)
	}
	if m != nil {
		t.Error("expected membership to cascade away with the house")
	}
}

func TestHouseAddMemberDuplicateUser(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	other := mustCreateUser(t, us, "bob@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")

	if _, err := hs.AddMember(h.ID, other.ID, "Bob", model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}

	_, err := hs.AddMember(h.ID, other.ID, "Bobby", model.RoleMember)
	if err == nil {
		t.Fatal("expected error for duplicate membership, got nil")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestHouseAddMemberDuplicateDisplayName(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	other := mustCreateUser(t, us, "bob@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")

	_, err := hs.AddMember(h.ID, other.ID, "Alice", model.RoleMember)
	if err == nil {
		t.Fatal("expected error for duplicate display name, got nil")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestHouseDisplayNameFreeInOtherHouse(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	u1 := mustCreateUser(t, us, "alice@example.com")
	u2 := mustCreateUser(t, us, "bob@example.com")
	hs.CreateWithOwner("House A", "", u1.ID, "Alice")

	// Same display name in a different house is fine.
	if _, err := hs.CreateWithOwner("House B", "", u2.ID, "Alice"); err != nil {
		t.Fatalf("create second house: %v", err)
	}
}

func TestHouseRemoveMemberGuardedLastOwner(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")

	removed, err := hs.RemoveMemberGuarded(h.ID, owner.ID)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if removed {
		t.Error("expected guard to reject removing the sole owner")
	}

	m, _ := hs.GetMember(h.ID, owner.ID)
	if m == nil {
		t.Fatal("sole owner should still be a member")
	}
}

func TestHouseRemoveMemberGuardedWithSecondOwner(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	second := mustCreateUser(t, us, "bob@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")
	hs.AddMember(h.ID, second.ID, "Bob", model.RoleOwner)

	removed, err := hs.RemoveMemberGuarded(h.ID, owner.ID)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if !removed {
		t.Error("expected removal to succeed with a second owner present")
	}
}

func TestHouseRemoveMemberGuardedPlainMember(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	member := mustCreateUser(t, us, "bob@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")
	hs.AddMember(h.ID, member.ID, "Bob", model.RoleMember)

	removed, err := hs.RemoveMemberGuarded(h.ID, member.ID)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if !removed {
		t.Error("expected plain member removal to succeed")
	}
}

func TestHouseUpdateMemberRoleGuardedDemoteLastOwner(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")

	updated, err := hs.UpdateMemberRoleGuarded(h.ID, owner.ID, model.RoleMember)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated {
		t.Error("expected guard to reject demoting the sole owner")
	}

	m, _ := hs.GetMember(h.ID, owner.ID)
	if m.Role != model.RoleOwner {
		t.Errorf("role = %q, want unchanged %q", m.Role, model.RoleOwner)
	}
}

func TestHouseUpdateMemberRoleGuardedPromote(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	member := mustCreateUser(t, us, "bob@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")
	hs.AddMember(h.ID, member.ID, "Bob", model.RoleMember)

	updated, err := hs.UpdateMemberRoleGuarded(h.ID, member.ID, model.RoleOwner)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !updated {
		t.Fatal("expected promotion to succeed")
	}

	// With two owners, demoting the original owner is allowed.
	updated, err = hs.UpdateMemberRoleGuarded(h.ID, owner.ID, model.RoleMember)
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if !updated {
		t.Error("expected demotion to succeed with a second owner present")
	}
}

func TestHouseListHousesForUser(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	u := mustCreateUser(t, us, "alice@example.com")
	other := mustCreateUser(t, us, "bob@example.com")

	hs.CreateWithOwner("House A", "", u.ID, "Alice")
	h2, _ := hs.CreateWithOwner("House B", "", other.ID, "Bob")
	hs.AddMember(h2.ID, u.ID, "Alice", model.RoleMember)

	houses, err := hs.ListHousesForUser(u.ID)
	if err != nil {
		t.Fatalf("list houses for user: %v", err)
	}
	if len(houses) != 2 {
		t.Fatalf("expected 2 houses, got %d", len(houses))
	}
	for _, h := range houses {
		if h.DisplayName != "Alice" {
			t.Errorf("display name = %q, want %q", h.DisplayName, "Alice")
		}
	}
}

func TestHouseDisplayNameTaken(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")

	taken, err := hs.DisplayNameTaken(h.ID, "Alice", nil)
	if err != nil {
		t.Fatalf("check display name: %v", err)
	}
	if !taken {
		t.Error("expected Alice to be taken")
	}

	// Excluding the holder frees the name for a no-op rename.
	taken, err = hs.DisplayNameTaken(h.ID, "Alice", &owner.ID)
	if err != nil {
		t.Fatalf("check display name with exclude: %v", err)
	}
	if taken {
		t.Error("expected Alice to be free when its holder is excluded")
	}

	taken, _ = hs.DisplayNameTaken(h.ID, "Bob", nil)
	if taken {
		t.Error("expected Bob to be free")
	}
}

func TestHouseCountMembersByIDs(t *testing.T) {
	hs, us := setupHouseTestDB(t)
	owner := mustCreateUser(t, us, "alice@example.com")
	member := mustCreateUser(t, us, "bob@example.com")
	h, _ := hs.CreateWithOwner("Test House", "", owner.ID, "Alice")
	m2, _ := hs.AddMember(h.ID, member.ID, "Bob", model.RoleMember)

	m1, _ := hs.GetMember(h.ID, owner.ID)

	count, err := hs.CountMembersByIDs(h.ID, []int64{m1.ID, m2.ID})
	if err != nil {
		t.Fatalf("count members: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	// A membership id from another house does not count.
	otherHouse, _ := hs.CreateWithOwner("Other House", "", member.ID, "Bob")
	foreign, _ := hs.GetMember(otherHouse.ID, member.ID)

	count, err = hs.CountMembersByIDs(h.ID, []int64{m1.ID, foreign.ID})
	if err != nil {
		t.Fatalf("count members: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
