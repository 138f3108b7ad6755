package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/house"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/policy"
	"github.com/hearthapp/hearth/internal/realtime"
)

type MemberHandler struct {
	houses *house.Service
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewMemberHandler(houses *house.Service, hub *realtime.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{houses: houses, hub: hub, logger: logger}
}

type addMemberRequest struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	if !policy.CanModerateHouse(actor.Role) {
		errorJSON(w, http.StatusForbidden, "only owners can add members")
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, err := h.houses.AddMember(actor.HouseID, req.UserID, req.DisplayName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("member", "added", member.ID))
	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	if !policy.CanModerateHouse(actor.Role) {
		errorJSON(w, http.StatusForbidden, "only owners can remove members")
		return
	}

	targetUserID, err := parseIDParam(r, "user_id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.houses.RemoveMember(actor.HouseID, targetUserID); err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("member", "removed", targetUserID))
	w.WriteHeader(http.StatusNoContent)
}

type updateRoleRequest struct {
	Role model.Role `json:"role"`
}

func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	if !policy.CanModerateHouse(actor.Role) {
		errorJSON(w, http.StatusForbidden, "only owners can change roles")
		return
	}

	targetUserID, err := parseIDParam(r, "user_id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, err := h.houses.UpdateMemberRole(actor.HouseID, targetUserID, req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("member", "role_changed", member.ID))
	writeJSON(w, http.StatusOK, member)
}
