package task

import (
	"time"

	"github.com/hearthapp/hearth/internal/apperr"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/store"
)

// MaxAssignees caps how many members a single task can be assigned to.
const MaxAssignees = 10

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service orchestrates task mutations. Stores are injected so tests can
// run against an in-memory database.
type Service struct {
	tasks      *store.TaskStore
	houses     *store.HouseStore
	categories *store.CategoryStore
}

func NewService(tasks *store.TaskStore, houses *store.HouseStore, categories *store.CategoryStore) *Service {
	return &Service{tasks: tasks, houses: houses, categories: categories}
}

// CreateParams carries a new task's fields. AssigneeIDs may be empty;
// an unassigned task is valid.
type CreateParams struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Priority    model.TaskPriority `json:"priority"`
	DueDate     *time.Time         `json:"due_date"`
	CategoryID  *int64             `json:"category_id"`
	AssigneeIDs []int64            `json:"assignee_ids"`
}

// Create validates house scoping for assignees and category, then
// inserts the task with its assignments atomically. Any foreign
// assignee fails the whole operation; no partial task is written.
func (s *Service) Create(houseID, createdByMemberID int64, p CreateParams) (*model.Task, error) {
	if p.Title == "" {
		return nil, apperr.Unprocessable("task title is required")
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	}
	if !p.Priority.Valid() {
		return nil, apperr.Unprocessable("unknown priority %q", p.Priority)
	}

	assigneeIDs := dedupe(p.AssigneeIDs)
	if err := s.validateAssignees(houseID, assigneeIDs); err != nil {
		return nil, err
	}
	if err := s.validateCategory(houseID, p.CategoryID); err != nil {
		return nil, err
	}

	return s.tasks.CreateWithAssignees(houseID, createdByMemberID, store.CreateTaskParams{
		Title:       p.Title,
		Description: p.Description,
		Priority:    p.Priority,
		DueDate:     p.DueDate,
		CategoryID:  p.CategoryID,
		AssigneeIDs: assigneeIDs,
	})
}

// ListParams are the task listing filters; all are optional and
// combined with AND.
type ListParams struct {
	Status       *model.TaskStatus
	Priority     *model.TaskPriority
	CategoryID   *int64
	AssignedToMe bool
	CreatedByMe  bool
	Overdue      bool
	Page         int
	Limit        int
}

// Page is one page of tasks plus pagination bookkeeping.
type Page struct {
	Tasks []model.Task `json:"tasks"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Pages int          `json:"pages"`
}

// List returns the house's tasks filtered and paginated. Me-filters
// resolve against the calling actor's membership.
func (s *Service) List(houseID int64, actor Actor, p ListParams) (*Page, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}

	filters := store.TaskFilters{
		Status:     p.Status,
		Priority:   p.Priority,
		CategoryID: p.CategoryID,
	}
	if p.AssignedToMe {
		filters.AssigneeMemberID = &actor.MemberID
	}
	if p.CreatedByMe {
		filters.CreatedByMemberID = &actor.MemberID
	}
	if p.Overdue {
		now := time.Now()
		filters.OverdueAt = &now
	}

	tasks, total, err := s.tasks.List(houseID, filters, p.Limit, (p.Page-1)*p.Limit)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	pages := (total + p.Limit - 1) / p.Limit
	return &Page{Tasks: tasks, Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}, nil
}

// Get loads a task within its house.
func (s *Service) Get(taskID, houseID int64) (*model.Task, error) {
	t, err := s.tasks.GetByID(taskID, houseID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("task %d not found", taskID)
	}
	return t, nil
}

// UpdateParams is a partial update. Pointer fields are applied when
// non-nil; Optional fields distinguish absent (keep) from null (clear).
type UpdateParams struct {
	Title       *string             `json:"title"`
	Priority    *model.TaskPriority `json:"priority"`
	Description Optional[string]    `json:"description"`
	DueDate     Optional[time.Time] `json:"due_date"`
	CategoryID  Optional[int64]     `json:"category_id"`
}

// Update applies a partial update after CanModify clears the actor.
func (s *Service) Update(taskID, houseID int64, actor Actor, p UpdateParams) (*model.Task, error) {
	t, err := s.Get(taskID, houseID)
	if err != nil {
		return nil, err
	}
	if !CanModify(t, actor) {
		return nil, apperr.Forbidden("not allowed to modify this task")
	}

	if p.Title != nil {
		if *p.Title == "" {
			return nil, apperr.Unprocessable("task title is required")
		}
		t.Title = *p.Title
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return nil, apperr.Unprocessable("unknown priority %q", *p.Priority)
		}
		t.Priority = *p.Priority
	}
	if p.Description.Set {
		if p.Description.Value == nil {
			t.Description = ""
		} else {
			t.Description = *p.Description.Value
		}
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Value
	}
	if p.CategoryID.Set {
		if err := s.validateCategory(houseID, p.CategoryID.Value); err != nil {
			return nil, err
		}
		t.CategoryID = p.CategoryID.Value
	}

	return s.tasks.Save(t)
}

// UpdateStatus transitions the task between pending and completed.
// Entering completed stamps completedAt to now, even on re-completion.
// Returning to pending clears it.
func (s *Service) UpdateStatus(taskID, houseID int64, actor Actor, status model.TaskStatus) (*model.Task, error) {
	if !status.Valid() {
		return nil, apperr.Unprocessable("unknown status %q", status)
	}

	t, err := s.Get(taskID, houseID)
	if err != nil {
		return nil, err
	}
	if !CanModify(t, actor) {
		return nil, apperr.Forbidden("not allowed to modify this task")
	}

	var completedAt *time.Time
	if status == model.TaskCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}
	return s.tasks.SetStatus(taskID, houseID, status, completedAt)
}

// UpdateAssignees replaces the task's whole assignee set. An empty set
// is a valid "unassign all".
func (s *Service) UpdateAssignees(taskID, houseID int64, actor Actor, assigneeIDs []int64) (*model.Task, error) {
	t, err := s.Get(taskID, houseID)
	if err != nil {
		return nil, err
	}
	if !CanModify(t, actor) {
		return nil, apperr.Forbidden("not allowed to modify this task")
	}

	assigneeIDs = dedupe(assigneeIDs)
	if err := s.validateAssignees(houseID, assigneeIDs); err != nil {
		return nil, err
	}

	if err := s.tasks.ReplaceAssignees(taskID, assigneeIDs); err != nil {
		return nil, err
	}
	return s.Get(taskID, houseID)
}

// Delete removes the task after CanDelete clears the actor.
func (s *Service) Delete(taskID, houseID int64, actor Actor) error {
	t, err := s.Get(taskID, houseID)
	if err != nil {
		return err
	}
	if !CanDelete(t, actor) {
		return apperr.Forbidden("not allowed to delete this task")
	}
	return s.tasks.Delete(taskID, houseID)
}

func (s *Service) validateAssignees(houseID int64, assigneeIDs []int64) error {
	if len(assigneeIDs) > MaxAssignees {
		return apperr.Unprocessable("a task can have at most %d assignees", MaxAssignees)
	}
	if len(assigneeIDs) == 0 {
		return nil
	}
	count, err := s.houses.CountMembersByIDs(houseID, assigneeIDs)
	if err != nil {
		return err
	}
	if count != len(assigneeIDs) {
		return apperr.Unprocessable("all assignees must be members of the house")
	}
	return nil
}

func (s *Service) validateCategory(houseID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	c, err := s.categories.GetByID(*categoryID, houseID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.Unprocessable("category %d does not belong to this house", *categoryID)
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
