// Package house implements the house lifecycle: creation with its owner
// membership, member management under the last-owner invariant, and the
// house views the API serves.
package house

import (
	"regexp"
	"strings"

	"github.com/hearthapp/hearth/internal/apperr"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/policy"
	"github.com/hearthapp/hearth/internal/store"
)

var houseNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// Service orchestrates house and membership mutations. It consults the
// policy package before every removal and demotion; the store's guarded
// statements re-verify the same rule atomically.
type Service struct {
	houses *store.HouseStore
	tasks  *store.TaskStore
}

func NewService(houses *store.HouseStore, tasks *store.TaskStore) *Service {
	return &Service{houses: houses, tasks: tasks}
}

func validateHouseName(name string) error {
	if len(name) < 3 || len(name) > 20 {
		return apperr.Unprocessable("house name must be 3-20 characters")
	}
	if !houseNamePattern.MatchString(name) {
		return apperr.Unprocessable("house name may only contain letters, numbers, and spaces")
	}
	return nil
}

// Create makes a house and its owner membership in one atomic step. The
// creator always becomes the sole owner.
func (s *Service) Create(actorUserID int64, name, description, displayName string) (*model.House, error) {
	name = strings.TrimSpace(name)
	if err := validateHouseName(name); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperr.Unprocessable("display name is required")
	}

	h, err := s.houses.CreateWithOwner(name, description, actorUserID, displayName)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, apperr.Conflict("display name %q is already taken", displayName)
		}
		return nil, err
	}
	return h, nil
}

// ListForUser returns every house the user belongs to, newest
// membership first, each annotated with the user's own membership.
func (s *Service) ListForUser(userID int64) ([]model.HouseWithMembership, error) {
	houses, err := s.houses.ListHousesForUser(userID)
	if err != nil {
		return nil, err
	}
	if houses == nil {
		houses = []model.HouseWithMembership{}
	}
	return houses, nil
}

// GetDetail returns the house with its members and counts.
func (s *Service) GetDetail(houseID int64) (*model.HouseDetail, error) {
	h, err := s.houses.GetByID(houseID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("house %d not found", houseID)
	}

	members, err := s.houses.ListMembersWithUsers(houseID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.MemberWithUser{}
	}
	taskCount, err := s.tasks.CountByHouse(houseID)
	if err != nil {
		return nil, err
	}

	return &model.HouseDetail{
		House:       *h,
		Members:     members,
		MemberCount: len(members),
		TaskCount:   taskCount,
	}, nil
}

// Update applies a partial update; nil fields keep their stored value.
func (s *Service) Update(houseID int64, name, description *string) (*model.House, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if err := validateHouseName(trimmed); err != nil {
			return nil, err
		}
		name = &trimmed
	}

	h, err := s.houses.GetByID(houseID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("house %d not found", houseID)
	}
	return s.houses.Update(houseID, name, description)
}

// Delete removes the house. Members, tasks, and categories cascade in
// the store. The caller must already have verified the actor holds the
// owner role.
func (s *Service) Delete(houseID int64) error {
	h, err := s.houses.GetByID(houseID)
	if err != nil {
		return err
	}
	if h == nil {
		return apperr.NotFound("house %d not found", houseID)
	}
	return s.houses.Delete(houseID)
}

// AddMember joins a user to the house as a plain member.
func (s *Service) AddMember(houseID, userID int64, displayName string) (*model.HouseMember, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperr.Unprocessable("display name is required")
	}

	h, err := s.houses.GetByID(houseID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("house %d not found", houseID)
	}

	m, err := s.houses.AddMember(houseID, userID, displayName, model.RoleMember)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, apperr.Conflict("user is already a member or display name %q is taken", displayName)
		}
		return nil, err
	}
	return m, nil
}

// RemoveMember deletes the target's membership. Fails when the target
// is the house's last owner; the store's guarded delete closes the race
// between the check and the delete.
func (s *Service) RemoveMember(houseID, targetUserID int64) error {
	members, err := s.houses.ListMembers(houseID)
	if err != nil {
		return err
	}
	target := findMember(members, targetUserID)
	if target == nil {
		return apperr.NotFound("user %d is not a member of house %d", targetUserID, houseID)
	}
	if policy.WouldViolateLastOwner(members, targetUserID, policy.Removed()) {
		return apperr.Unprocessable("cannot remove the last owner of the house")
	}

	removed, err := s.houses.RemoveMemberGuarded(houseID, targetUserID)
	if err != nil {
		return err
	}
	if !removed {
		// The guard rejected the delete: a concurrent change made the
		// target the last owner between our read and the statement.
		return apperr.Unprocessable("cannot remove the last owner of the house")
	}
	return nil
}

// UpdateMemberRole changes the target's role, refusing to demote the
// last owner. It returns the updated membership with its user identity.
func (s *Service) UpdateMemberRole(houseID, targetUserID int64, newRole model.Role) (*model.MemberWithUser, error) {
	if !newRole.Valid() {
		return nil, apperr.Unprocessable("unknown role %q", newRole)
	}

	members, err := s.houses.ListMembers(houseID)
	if err != nil {
		return nil, err
	}
	target := findMember(members, targetUserID)
	if target == nil {
		return nil, apperr.NotFound("user %d is not a member of house %d", targetUserID, houseID)
	}
	if policy.WouldViolateLastOwner(members, targetUserID, policy.DemotedTo(newRole)) {
		return nil, apperr.Unprocessable("cannot demote the last owner of the house")
	}

	updated, err := s.houses.UpdateMemberRoleGuarded(houseID, targetUserID, newRole)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperr.Unprocessable("cannot demote the last owner of the house")
	}
	return s.houses.GetMemberWithUser(houseID, targetUserID)
}

// IsDisplayNameAvailable reports whether displayName is free in the
// house. excludeUserID lets a member check their own current name
// without it counting against them.
func (s *Service) IsDisplayNameAvailable(houseID int64, displayName string, excludeUserID *int64) (bool, error) {
	taken, err := s.houses.DisplayNameTaken(houseID, strings.TrimSpace(displayName), excludeUserID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func findMember(members []model.HouseMember, userID int64) *model.HouseMember {
	for i := range members {
		if members[i].UserID == userID {
			return &members[i]
		}
	}
	return nil
}
