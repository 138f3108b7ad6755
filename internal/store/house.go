package store

import (
	"database/sql"
	"fmt"

	"github.com/hearthapp/hearth/internal/model"
)

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

func scanHouse(scanner interface{ Scan(...any) error }) (*model.House, error) {
	var h model.House
	err := scanner.Scan(&h.ID, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.HouseMember, error) {
	var m model.HouseMember
	err := scanner.Scan(&m.ID, &m.HouseID, &m.UserID, &m.DisplayName, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const houseCols = `id, name, description, created_at, updated_at`
const memberCols = `id, house_id, user_id, display_name, role, joined_at`

// CreateWithOwner inserts a house together with its owner membership in
// one transaction. A house without an owner must never be observable.
func (s *HouseStore) CreateWithOwner(name, description string, ownerUserID int64, displayName string) (*model.House, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO houses (name, description) VALUES (?, ?)`,
		name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	houseID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO house_members (house_id, user_id, display_name, role) VALUES (?, ?, ?, ?)`,
		houseID, ownerUserID, displayName, model.RoleOwner,
	); err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(houseID)
}

func (s *HouseStore) GetByID(id int64) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE id = ?`, id)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	return h, nil
}

// Update applies a partial update: nil fields are left unchanged.
func (s *HouseStore) Update(id int64, name, description *string) (*model.House, error) {
	if name != nil {
		if _, err := s.db.Exec(
			`UPDATE houses SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, *name, id,
		); err != nil {
			return nil, fmt.Errorf("update house name: %w", err)
		}
	}
	if description != nil {
		if _, err := s.db.Exec(
			`UPDATE houses SET description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, *description, id,
		); err != nil {
			return nil, fmt.Errorf("update house description: %w", err)
		}
	}
	return s.GetByID(id)
}

// Delete removes the house. Memberships, tasks, and categories go with
// it via cascade.
func (s *HouseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM houses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete house: %w", err)
	}
	return nil
}

func (s *HouseStore) AddMember(houseID, userID int64, displayName string, role model.Role) (*model.HouseMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO house_members (house_id, user_id, display_name, role) VALUES (?, ?, ?, ?)`,
		houseID, userID, displayName, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM house_members WHERE id = ?`, id)
	return scanMember(row)
}

func (s *HouseStore) GetMember(houseID, userID int64) (*model.HouseMember, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM house_members WHERE house_id = ? AND user_id = ?`,
		houseID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetMemberWithUser returns the membership joined with its user
// identity, or nil when the user is not a member of the house.
func (s *HouseStore) GetMemberWithUser(houseID, userID int64) (*model.MemberWithUser, error) {
	row := s.db.QueryRow(
		`SELECT m.id, m.house_id, m.user_id, m.display_name, m.role, m.joined_at, u.email, u.name
		 FROM house_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.house_id = ? AND m.user_id = ?`,
		houseID, userID,
	)
	var m model.MemberWithUser
	err := row.Scan(
		&m.ID, &m.HouseID, &m.UserID, &m.DisplayName, &m.Role, &m.JoinedAt,
		&m.UserEmail, &m.UserName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member with user: %w", err)
	}
	return &m, nil
}

func (s *HouseStore) GetMemberByID(memberID int64) (*model.HouseMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM house_members WHERE id = ?`, memberID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by id: %w", err)
	}
	return m, nil
}

func (s *HouseStore) ListMembers(houseID int64) ([]model.HouseMember, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM house_members WHERE house_id = ? ORDER BY joined_at ASC, id ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListMembersWithUsers returns the house's members joined with their
// user identity, for the house detail view.
func (s *HouseStore) ListMembersWithUsers(houseID int64) ([]model.MemberWithUser, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.house_id, m.user_id, m.display_name, m.role, m.joined_at, u.email, u.name
		 FROM house_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.house_id = ?
		 ORDER BY m.joined_at ASC, m.id ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members with users: %w", err)
	}
	defer rows.Close()

	var members []model.MemberWithUser
	for rows.Next() {
		var m model.MemberWithUser
		if err := rows.Scan(
			&m.ID, &m.HouseID, &m.UserID, &m.DisplayName, &m.Role, &m.JoinedAt,
			&m.UserEmail, &m.UserName,
		); err != nil {
			return nil, fmt.Errorf("scan member with user: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListHousesForUser returns every house the user belongs to, annotated
// with their own membership, newest membership first.
func (s *HouseStore) ListHousesForUser(userID int64) ([]model.HouseWithMembership, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.description, h.created_at, h.updated_at,
		        m.display_name, m.role, m.joined_at
		 FROM houses h
		 JOIN house_members m ON h.id = m.house_id
		 WHERE m.user_id = ?
		 ORDER BY m.joined_at DESC, h.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list houses for user: %w", err)
	}
	defer rows.Close()

	var houses []model.HouseWithMembership
	for rows.Next() {
		var h model.HouseWithMembership
		if err := rows.Scan(
			&h.ID, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt,
			&h.DisplayName, &h.Role, &h.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan house with membership: %w", err)
		}
		houses = append(houses, h)
	}
	return houses, rows.Err()
}

// RemoveMemberGuarded deletes the membership unless doing so would
// remove the house's last owner. The owner-count check lives in the
// statement's WHERE clause, so check and delete are one atomic step and
// two racing removals cannot strand the house ownerless. It returns
// whether a row was deleted.
func (s *HouseStore) RemoveMemberGuarded(houseID, userID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM house_members
		 WHERE house_id = ? AND user_id = ?
		   AND (role != ?
		        OR (SELECT COUNT(*) FROM house_members WHERE house_id = ? AND role = ?) > 1)`,
		houseID, userID, model.RoleOwner, houseID, model.RoleOwner,
	)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateMemberRoleGuarded changes the member's role unless the change
// would demote the house's last owner. Same single-statement guard as
// RemoveMemberGuarded. It returns whether a row was updated.
func (s *HouseStore) UpdateMemberRoleGuarded(houseID, userID int64, role model.Role) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE house_members SET role = ?
		 WHERE house_id = ? AND user_id = ?
		   AND (? = ?
		        OR role != ?
		        OR (SELECT COUNT(*) FROM house_members WHERE house_id = ? AND role = ?) > 1)`,
		role, houseID, userID,
		role, model.RoleOwner,
		model.RoleOwner,
		houseID, model.RoleOwner,
	)
	if err != nil {
		return false, fmt.Errorf("update member role: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DisplayNameTaken reports whether another membership in the house
// already holds displayName. When excludeUserID is non-nil, that user's
// own membership does not count (supports no-op renames).
func (s *HouseStore) DisplayNameTaken(houseID int64, displayName string, excludeUserID *int64) (bool, error) {
	query := `SELECT COUNT(*) FROM house_members WHERE house_id = ? AND display_name = ?`
	args := []any{houseID, displayName}
	if excludeUserID != nil {
		query += ` AND user_id != ?`
		args = append(args, *excludeUserID)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check display name: %w", err)
	}
	return count > 0, nil
}

// CountMembersByIDs returns how many of the given membership ids exist
// in the house. Used to validate assignee sets against house scope.
func (s *HouseStore) CountMembersByIDs(houseID int64, memberIDs []int64) (int, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*) FROM house_members WHERE house_id = ? AND id IN (?` +
		repeatPlaceholder(len(memberIDs)-1) + `)`
	args := make([]any, 0, len(memberIDs)+1)
	args = append(args, houseID)
	for _, id := range memberIDs {
		args = append(args, id)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count members by ids: %w", err)
	}
	return count, nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
