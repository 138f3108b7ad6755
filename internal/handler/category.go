package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/realtime"
	"github.com/hearthapp/hearth/internal/store"
)

type CategoryHandler struct {
	categories *store.CategoryStore
	hub        *realtime.Hub
	logger     *slog.Logger
}

func NewCategoryHandler(categories *store.CategoryStore, hub *realtime.Hub, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, hub: hub, logger: logger}
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errorJSON(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := h.categories.Create(houseID, req.Name, req.Color)
	if err != nil {
		if store.IsUniqueViolation(err) {
			errorJSON(w, http.StatusConflict, "a category with this name already exists")
			return
		}
		h.logger.Error("create category", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(houseID, realtime.NewEvent("category", "created", category.ID))
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListByHouse(auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("list categories", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errorJSON(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.categories.GetByID(id, houseID)
	if err != nil {
		h.logger.Error("get category", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		errorJSON(w, http.StatusNotFound, "category not found")
		return
	}

	category, err := h.categories.Update(id, houseID, req.Name, req.Color)
	if err != nil {
		if store.IsUniqueViolation(err) {
			errorJSON(w, http.StatusConflict, "a category with this name already exists")
			return
		}
		h.logger.Error("update category", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(houseID, realtime.NewEvent("category", "updated", id))
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.categories.GetByID(id, houseID)
	if err != nil {
		h.logger.Error("get category", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		errorJSON(w, http.StatusNotFound, "category not found")
		return
	}

	// Tasks referencing the category fall back to uncategorized via
	// ON DELETE SET NULL.
	if err := h.categories.Delete(id, houseID); err != nil {
		h.logger.Error("delete category", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(houseID, realtime.NewEvent("category", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}
