package model

import "time"

// Role is a house member's role. The set is closed: owners moderate the
// house, members participate.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

type House struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HouseMember joins a User to a House with a role and a house-scoped
// display name. Exactly one row exists per (house, user) pair.
type HouseMember struct {
	ID          int64     `json:"id"`
	HouseID     int64     `json:"house_id"`
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MemberWithUser is a membership annotated with its user's identity,
// used when listing a house's members.
type MemberWithUser struct {
	HouseMember
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

// HouseWithMembership is a house annotated with the viewing user's own
// membership, used when listing a user's houses.
type HouseWithMembership struct {
	House
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// HouseDetail is the full house view: members plus aggregate counts.
type HouseDetail struct {
	House
	Members     []MemberWithUser `json:"members"`
	MemberCount int              `json:"member_count"`
	TaskCount   int              `json:"task_count"`
}
