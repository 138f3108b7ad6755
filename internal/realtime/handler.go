package realtime

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/hearthapp/hearth/internal/auth"
)

// Handler returns an HTTP handler that upgrades connections to
// WebSocket and joins them to the caller's house room. It must be
// mounted behind the house-membership middleware so the actor carries a
// resolved house scope.
func Handler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.FromContext(r.Context())
		if !ok || actor.HouseID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, actor.HouseID)
		client.Run(r.Context())
	}
}
