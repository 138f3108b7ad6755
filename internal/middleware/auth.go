package middleware

import (
	"net/http"
	"strconv"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/store"
)

const sessionCookieName = "hearth_session"

// RequireAuth validates the session cookie and stores the caller's
// Actor in the request context. Unauthenticated requests get 401.
func RequireAuth(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			actor := auth.Actor{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			}
			ctx := auth.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireHouseMember resolves the caller's membership for the
// {house_id} path segment and attaches house scope to the Actor.
// Non-members get 404: whether the house exists is not revealed to
// outsiders.
func RequireHouseMember(houses *store.HouseStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.FromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			houseID, err := strconv.ParseInt(r.PathValue("house_id"), 10, 64)
			if err != nil {
				http.Error(w, "Invalid house id", http.StatusBadRequest)
				return
			}

			member, err := houses.GetMember(houseID, actor.UserID)
			if err != nil || member == nil {
				http.Error(w, "House not found", http.StatusNotFound)
				return
			}

			actor.HouseID = houseID
			actor.MemberID = member.ID
			actor.Role = member.Role
			ctx := auth.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
