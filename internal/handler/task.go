package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/push"
	"github.com/hearthapp/hearth/internal/realtime"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/task"
)

type TaskHandler struct {
	tasks  *task.Service
	houses *store.HouseStore
	hub    *realtime.Hub
	pusher *push.Service
	logger *slog.Logger
}

// NewTaskHandler creates the task handler. pusher may be nil when push
// notifications are not configured.
func NewTaskHandler(tasks *task.Service, houses *store.HouseStore, hub *realtime.Hub, pusher *push.Service, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, houses: houses, hub: hub, pusher: pusher, logger: logger}
}

func actors(r *http.Request) (auth.Actor, task.Actor) {
	a, _ := auth.FromContext(r.Context())
	return a, task.Actor{MemberID: a.MemberID, Role: a.Role}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	var req task.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	created, err := h.tasks.Create(actor.HouseID, actor.MemberID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("task", "created", created.ID))
	h.notifyAssignees(created, actor.MemberID, "New task assigned to you")
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, taskActor := actors(r)
	q := r.URL.Query()

	params := task.ListParams{
		AssignedToMe: q.Get("assigned_to_me") == "true",
		CreatedByMe:  q.Get("created_by_me") == "true",
		Overdue:      q.Get("overdue") == "true",
	}
	if v := q.Get("status"); v != "" {
		status := model.TaskStatus(v)
		params.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := model.TaskPriority(v)
		params.Priority = &priority
	}
	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		params.CategoryID = &id
	}
	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.tasks.List(actor.HouseID, taskActor, params)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	t, err := h.tasks.Get(id, actor.HouseID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, taskActor := actors(r)

	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req task.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	updated, err := h.tasks.Update(id, actor.HouseID, taskActor, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("task", "updated", id))
	writeJSON(w, http.StatusOK, updated)
}

type updateStatusRequest struct {
	Status model.TaskStatus `json:"status"`
}

func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, taskActor := actors(r)

	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	updated, err := h.tasks.UpdateStatus(id, actor.HouseID, taskActor, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("task", string(updated.Status), id))
	writeJSON(w, http.StatusOK, updated)
}

type updateAssigneesRequest struct {
	AssigneeIDs []int64 `json:"assignee_ids"`
}

func (h *TaskHandler) UpdateAssignees(w http.ResponseWriter, r *http.Request) {
	actor, taskActor := actors(r)

	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateAssigneesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.AssigneeIDs == nil {
		req.AssigneeIDs = []int64{}
	}

	updated, err := h.tasks.UpdateAssignees(id, actor.HouseID, taskActor, req.AssigneeIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("task", "assignees_changed", id))
	h.notifyAssignees(updated, actor.MemberID, "Task assigned to you")
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, taskActor := actors(r)

	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.tasks.Delete(id, actor.HouseID, taskActor); err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("task", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// notifyAssignees pushes to every assignee except the acting member.
func (h *TaskHandler) notifyAssignees(t *model.Task, actingMemberID int64, title string) {
	if h.pusher == nil {
		return
	}
	for _, memberID := range t.AssigneeIDs {
		if memberID == actingMemberID {
			continue
		}
		member, err := h.houses.GetMemberByID(memberID)
		if err != nil || member == nil {
			continue
		}
		h.pusher.NotifyUser(member.UserID, push.Payload{
			Title: title,
			Body:  t.Title,
			Tag:   "task-" + strconv.FormatInt(t.ID, 10),
		})
	}
}
