// Package server wires the stores, services, and handlers together and
// builds the route tree.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hearthapp/hearth/internal/handler"
	"github.com/hearthapp/hearth/internal/house"
	"github.com/hearthapp/hearth/internal/middleware"
	"github.com/hearthapp/hearth/internal/push"
	"github.com/hearthapp/hearth/internal/realtime"
	"github.com/hearthapp/hearth/internal/reminder"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/task"
)

type Server struct {
	db           *sql.DB
	hub          *realtime.Hub
	authH        *handler.AuthHandler
	houseH       *handler.HouseHandler
	memberH      *handler.MemberHandler
	taskH        *handler.TaskHandler
	categoryH    *handler.CategoryHandler
	pushH        *handler.PushHandler
	sessionStore *store.SessionStore
	houseStore   *store.HouseStore
	rateLimiter  *middleware.RateLimiter
	pushService  *push.Service
	reminders    *reminder.Scheduler
	logger       *slog.Logger
}

func New(db *sql.DB, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := realtime.NewHub(logger.With("component", "realtime"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	houseStore := store.NewHouseStore(db)
	taskStore := store.NewTaskStore(db)
	categoryStore := store.NewCategoryStore(db)
	pushStore := store.NewPushStore(db)

	var pushSvc *push.Service
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	houseSvc := house.NewService(houseStore, taskStore)
	taskSvc := task.NewService(taskStore, houseStore, categoryStore)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		houseH:       handler.NewHouseHandler(houseSvc, hub, logger.With("component", "house")),
		memberH:      handler.NewMemberHandler(houseSvc, hub, logger.With("component", "member")),
		taskH:        handler.NewTaskHandler(taskSvc, houseStore, hub, pushSvc, logger.With("component", "task")),
		categoryH:    handler.NewCategoryHandler(categoryStore, hub, logger.With("component", "category")),
		pushH:        pushH,
		sessionStore: sessionStore,
		houseStore:   houseStore,
		rateLimiter:  middleware.NewRateLimiter(),
		pushService:  pushSvc,
		reminders:    reminder.New(taskStore, pushSvc, hub, logger.With("component", "reminder")),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Reminders returns the overdue-task reminder scheduler.
func (s *Server) Reminders() *reminder.Scheduler {
	return s.reminders
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Authenticated routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Houses
	mux.HandleFunc("POST /api/houses", s.houseH.Create)
	mux.HandleFunc("GET /api/houses", s.houseH.List)

	// Push subscriptions (per user, not per house)
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}

	// House-scoped routes; the middleware resolves {house_id} to a
	// membership and rejects outsiders with 404.
	inHouse := s.houseScoped()

	mux.HandleFunc("GET /api/houses/{house_id}", inHouse(s.houseH.Get))
	mux.HandleFunc("PUT /api/houses/{house_id}", inHouse(s.houseH.Update))
	mux.HandleFunc("DELETE /api/houses/{house_id}", inHouse(s.houseH.Delete))
	mux.HandleFunc("GET /api/houses/{house_id}/display-name-check", inHouse(s.houseH.CheckDisplayName))

	// Members
	mux.HandleFunc("POST /api/houses/{house_id}/members", inHouse(s.memberH.Add))
	mux.HandleFunc("DELETE /api/houses/{house_id}/members/{user_id}", inHouse(s.memberH.Remove))
	mux.HandleFunc("PUT /api/houses/{house_id}/members/{user_id}/role", inHouse(s.memberH.UpdateRole))

	// Tasks
	mux.HandleFunc("POST /api/houses/{house_id}/tasks", inHouse(s.taskH.Create))
	mux.HandleFunc("GET /api/houses/{house_id}/tasks", inHouse(s.taskH.List))
	mux.HandleFunc("GET /api/houses/{house_id}/tasks/{id}", inHouse(s.taskH.Get))
	mux.HandleFunc("PUT /api/houses/{house_id}/tasks/{id}", inHouse(s.taskH.Update))
	mux.HandleFunc("PUT /api/houses/{house_id}/tasks/{id}/status", inHouse(s.taskH.UpdateStatus))
	mux.HandleFunc("PUT /api/houses/{house_id}/tasks/{id}/assignees", inHouse(s.taskH.UpdateAssignees))
	mux.HandleFunc("DELETE /api/houses/{house_id}/tasks/{id}", inHouse(s.taskH.Delete))

	// Categories
	mux.HandleFunc("POST /api/houses/{house_id}/categories", inHouse(s.categoryH.Create))
	mux.HandleFunc("GET /api/houses/{house_id}/categories", inHouse(s.categoryH.List))
	mux.HandleFunc("PUT /api/houses/{house_id}/categories/{id}", inHouse(s.categoryH.Update))
	mux.HandleFunc("DELETE /api/houses/{house_id}/categories/{id}", inHouse(s.categoryH.Delete))

	// Realtime
	mux.HandleFunc("GET /api/houses/{house_id}/ws", inHouse(realtime.Handler(s.hub, s.logger.With("component", "realtime"))))
}

// houseScoped wraps a handler with the house-membership middleware.
func (s *Server) houseScoped() func(http.HandlerFunc) http.HandlerFunc {
	mw := middleware.RequireHouseMember(s.houseStore)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return mw(h).ServeHTTP
	}
}
