package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/push"
	"github.com/hearthapp/hearth/internal/store"
)

type PushHandler struct {
	subs   *store.PushStore
	pusher *push.Service
	logger *slog.Logger
}

func NewPushHandler(subs *store.PushStore, pusher *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, pusher: pusher, logger: logger}
}

// VAPIDKey hands the public key to clients so they can subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.pusher == nil {
		errorJSON(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.pusher.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		errorJSON(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.subs.Upsert(auth.UserID(r.Context()), req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("save subscription", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list subscriptions", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	sub, err := h.subs.GetByID(id)
	if err != nil {
		h.logger.Error("get subscription", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sub == nil || sub.UserID != auth.UserID(r.Context()) {
		errorJSON(w, http.StatusNotFound, "subscription not found")
		return
	}

	if err := h.subs.Delete(id); err != nil {
		h.logger.Error("delete subscription", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
