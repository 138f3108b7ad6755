package model

import "time"

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == TaskPending || s == TaskCompleted
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task belongs to a house. CreatedBy references a house member and goes
// nil when that member leaves the house. CompletedAt is derived from
// status: non-nil iff the task is completed.
type Task struct {
	ID          int64        `json:"id"`
	HouseID     int64        `json:"house_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	CompletedAt *time.Time   `json:"completed_at"`
	CategoryID  *int64       `json:"category_id"`
	CreatedBy   *int64       `json:"created_by"`
	AssigneeIDs []int64      `json:"assignee_ids"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskAssignment links a task to an assigned house member. At most one
// row exists per (task, member) pair.
type TaskAssignment struct {
	ID            int64     `json:"id"`
	TaskID        int64     `json:"task_id"`
	HouseMemberID int64     `json:"house_member_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type Category struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
