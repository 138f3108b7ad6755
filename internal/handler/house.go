package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/house"
	"github.com/hearthapp/hearth/internal/policy"
	"github.com/hearthapp/hearth/internal/realtime"
)

type HouseHandler struct {
	houses *house.Service
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewHouseHandler(houses *house.Service, hub *realtime.Hub, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{houses: houses, hub: hub, logger: logger}
}

type createHouseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DisplayName string `json:"display_name"`
}

func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	created, err := h.houses.Create(auth.UserID(r.Context()), req.Name, req.Description, req.DisplayName)
	if err != nil {
		h.logger.Warn("create house", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	houses, err := h.houses.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list houses", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, houses)
}

func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.houses.GetDetail(auth.HouseID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type updateHouseRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *HouseHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	if !policy.CanModerateHouse(actor.Role) {
		errorJSON(w, http.StatusForbidden, "only owners can update the house")
		return
	}

	var req updateHouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	updated, err := h.houses.Update(actor.HouseID, req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("house", "updated", actor.HouseID))
	writeJSON(w, http.StatusOK, updated)
}

func (h *HouseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	if !policy.CanModerateHouse(actor.Role) {
		errorJSON(w, http.StatusForbidden, "only owners can delete the house")
		return
	}

	if err := h.houses.Delete(actor.HouseID); err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(actor.HouseID, realtime.NewEvent("house", "deleted", actor.HouseID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseHandler) CheckDisplayName(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	name := r.URL.Query().Get("name")
	if name == "" {
		errorJSON(w, http.StatusBadRequest, "name query parameter is required")
		return
	}

	available, err := h.houses.IsDisplayNameAvailable(actor.HouseID, name, &actor.UserID)
	if err != nil {
		h.logger.Error("check display name", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}
