package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthapp/hearth/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var dueDate, completedAt sql.NullTime
	var categoryID, createdBy sql.NullInt64

	err := scanner.Scan(
		&t.ID, &t.HouseID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&dueDate, &completedAt, &categoryID, &createdBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if createdBy.Valid {
		t.CreatedBy = &createdBy.Int64
	}
	return &t, nil
}

const taskCols = `id, house_id, title, description, status, priority, due_date, completed_at, category_id, created_by, created_at, updated_at`

// CreateTaskParams carries the writable fields for a new task.
type CreateTaskParams struct {
	Title       string
	Description string
	Priority    model.TaskPriority
	DueDate     *time.Time
	CategoryID  *int64
	AssigneeIDs []int64
}

// CreateWithAssignees inserts a task and its assignment rows in one
// transaction. Either the task lands with its full assignee set or
// nothing is written.
func (s *TaskStore) CreateWithAssignees(houseID, createdBy int64, p CreateTaskParams) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var due sql.NullTime
	if p.DueDate != nil {
		due = sql.NullTime{Time: p.DueDate.UTC(), Valid: true}
	}
	var cat sql.NullInt64
	if p.CategoryID != nil {
		cat = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
	}

	result, err := tx.Exec(
		`INSERT INTO tasks (house_id, title, description, priority, due_date, category_id, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		houseID, p.Title, p.Description, p.Priority, due, cat, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	taskID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, memberID := range p.AssigneeIDs {
		if _, err := tx.Exec(
			`INSERT INTO task_assignees (task_id, house_member_id) VALUES (?, ?)`,
			taskID, memberID,
		); err != nil {
			return nil, fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(taskID, houseID)
}

// GetByID loads a task within its house, assignee ids included. House
// scope is part of the lookup key, not a post-filter.
func (s *TaskStore) GetByID(taskID, houseID int64) (*model.Task, error) {
	row := s.db.QueryRow(
		`SELECT `+taskCols+` FROM tasks WHERE id = ? AND house_id = ?`,
		taskID, houseID,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	t.AssigneeIDs, err = s.ListAssigneeIDs(t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListAssigneeIDs returns the member ids assigned to a task, oldest
// assignment first.
func (s *TaskStore) ListAssigneeIDs(taskID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT house_member_id FROM task_assignees WHERE task_id = ? ORDER BY id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TaskFilters are conjunctive: every non-nil filter must match.
type TaskFilters struct {
	Status            *model.TaskStatus
	Priority          *model.TaskPriority
	CategoryID        *int64
	AssigneeMemberID  *int64
	CreatedByMemberID *int64
	// OverdueAt selects pending tasks whose due date is before this
	// instant.
	OverdueAt *time.Time
}

func (f TaskFilters) where() (string, []any) {
	clause := ` WHERE t.house_id = ?`
	var args []any

	if f.Status != nil {
		clause += ` AND t.status = ?`
		args = append(args, *f.Status)
	}
	if f.Priority != nil {
		clause += ` AND t.priority = ?`
		args = append(args, *f.Priority)
	}
	if f.CategoryID != nil {
		clause += ` AND t.category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.AssigneeMemberID != nil {
		clause += ` AND EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.id AND ta.house_member_id = ?)`
		args = append(args, *f.AssigneeMemberID)
	}
	if f.CreatedByMemberID != nil {
		clause += ` AND t.created_by = ?`
		args = append(args, *f.CreatedByMemberID)
	}
	if f.OverdueAt != nil {
		clause += ` AND t.status = ? AND t.due_date IS NOT NULL AND t.due_date < ?`
		args = append(args, model.TaskPending, f.OverdueAt.UTC())
	}
	return clause, args
}

// List returns one page of the house's tasks plus the unpaginated total.
// Ordering surfaces urgent work first: priority high-to-low, then due
// date soonest-first with undated tasks last, then newest creation.
func (s *TaskStore) List(houseID int64, f TaskFilters, limit, offset int) ([]model.Task, int, error) {
	clause, filterArgs := f.where()
	args := append([]any{houseID}, filterArgs...)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks t`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query := `SELECT t.id, t.house_id, t.title, t.description, t.status, t.priority,
	       t.due_date, t.completed_at, t.category_id, t.created_by, t.created_at, t.updated_at
	 FROM tasks t` + clause + `
	 ORDER BY CASE t.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END ASC,
	          CASE WHEN t.due_date IS NULL THEN 1 ELSE 0 END ASC,
	          t.due_date ASC,
	          t.created_at DESC, t.id DESC
	 LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.attachAssignees(tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *TaskStore) attachAssignees(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	query := `SELECT task_id, house_member_id FROM task_assignees WHERE task_id IN (?` +
		repeatPlaceholder(len(tasks)-1) + `) ORDER BY id ASC`
	args := make([]any, len(tasks))
	byID := make(map[int64]*model.Task, len(tasks))
	for i := range tasks {
		args[i] = tasks[i].ID
		tasks[i].AssigneeIDs = []int64{}
		byID[tasks[i].ID] = &tasks[i]
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("attach assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, memberID int64
		if err := rows.Scan(&taskID, &memberID); err != nil {
			return fmt.Errorf("scan assignment: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.AssigneeIDs = append(t.AssigneeIDs, memberID)
		}
	}
	return rows.Err()
}

// Save writes the task's mutable fields (title, description, priority,
// due date, category). Status and completed_at change only through
// SetStatus.
func (s *TaskStore) Save(t *model.Task) (*model.Task, error) {
	var due sql.NullTime
	if t.DueDate != nil {
		due = sql.NullTime{Time: t.DueDate.UTC(), Valid: true}
	}
	var cat sql.NullInt64
	if t.CategoryID != nil {
		cat = sql.NullInt64{Int64: *t.CategoryID, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, priority = ?, due_date = ?, category_id = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND house_id = ?`,
		t.Title, t.Description, t.Priority, due, cat, t.ID, t.HouseID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(t.ID, t.HouseID)
}

// SetStatus writes the status together with its derived completed_at in
// one statement, keeping the coupling unconditional.
func (s *TaskStore) SetStatus(taskID, houseID int64, status model.TaskStatus, completedAt *time.Time) (*model.Task, error) {
	var done sql.NullTime
	if completedAt != nil {
		done = sql.NullTime{Time: completedAt.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND house_id = ?`,
		status, done, taskID, houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return s.GetByID(taskID, houseID)
}

// ReplaceAssignees swaps the task's whole assignee set in one
// transaction: delete everything, insert the new set. A failed replace
// never leaves a partial set behind.
func (s *TaskStore) ReplaceAssignees(taskID int64, memberIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM task_assignees WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	for _, memberID := range memberIDs {
		if _, err := tx.Exec(
			`INSERT INTO task_assignees (task_id, house_member_id) VALUES (?, ?)`,
			taskID, memberID,
		); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes the task; its assignments cascade.
func (s *TaskStore) Delete(taskID, houseID int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND house_id = ?`, taskID, houseID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) CountByHouse(houseID int64) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE house_id = ?`, houseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// OverdueReminder pairs an overdue task with one assignee's user id,
// for the reminder sweep.
type OverdueReminder struct {
	TaskID  int64
	HouseID int64
	Title   string
	DueDate time.Time
	UserID  int64
}

// ListOverdueReminders returns one row per (overdue pending task,
// assignee) across all houses.
func (s *TaskStore) ListOverdueReminders(now time.Time) ([]OverdueReminder, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.house_id, t.title, t.due_date, m.user_id
		 FROM tasks t
		 JOIN task_assignees ta ON ta.task_id = t.id
		 JOIN house_members m ON m.id = ta.house_member_id
		 WHERE t.status = ? AND t.due_date IS NOT NULL AND t.due_date < ?
		 ORDER BY t.due_date ASC, t.id ASC`,
		model.TaskPending, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list overdue reminders: %w", err)
	}
	defer rows.Close()

	var reminders []OverdueReminder
	for rows.Next() {
		var r OverdueReminder
		if err := rows.Scan(&r.TaskID, &r.HouseID, &r.Title, &r.DueDate, &r.UserID); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
