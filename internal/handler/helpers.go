// Package handler holds the thin HTTP layer. Handlers decode requests,
// hand typed input to the house/task services, and translate domain
// error kinds to status codes; business rules live below this package.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hearthapp/hearth/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a domain error kind to its HTTP status. Errors
// without a kind are internal; the generic message avoids leaking store
// details.
func writeDomainError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		errorJSON(w, http.StatusNotFound, err.Error())
	case apperr.KindForbidden:
		errorJSON(w, http.StatusForbidden, err.Error())
	case apperr.KindUnprocessable:
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
	case apperr.KindConflict:
		errorJSON(w, http.StatusConflict, err.Error())
	default:
		errorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
