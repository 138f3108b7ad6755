// Package reminder runs the scheduled overdue-task sweep. On each run
// it finds pending tasks past their due date and notifies every
// assignee's devices, plus the house's realtime room.
package reminder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearthapp/hearth/internal/push"
	"github.com/hearthapp/hearth/internal/realtime"
	"github.com/hearthapp/hearth/internal/store"
)

// DefaultSchedule fires the sweep every morning at 08:00 server time.
const DefaultSchedule = "0 8 * * *"

type Scheduler struct {
	tasks  *store.TaskStore
	pusher *push.Service
	hub    *realtime.Hub
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates the reminder scheduler. pusher may be nil when push is
// not configured; realtime events are still broadcast.
func New(tasks *store.TaskStore, pusher *push.Service, hub *realtime.Hub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		tasks:  tasks,
		pusher: pusher,
		hub:    hub,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the sweep at the given cron schedule and starts the
// cron runner.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return fmt.Errorf("add reminder schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("reminder sweep scheduled", "schedule", schedule)
	return nil
}

// Stop stops the cron runner and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep runs one pass over all overdue pending tasks.
func (s *Scheduler) Sweep() {
	reminders, err := s.tasks.ListOverdueReminders(time.Now())
	if err != nil {
		s.logger.Error("list overdue tasks", "error", err)
		return
	}
	if len(reminders) == 0 {
		return
	}

	notifiedHouses := make(map[int64]struct{})
	for _, r := range reminders {
		if s.pusher != nil {
			s.pusher.NotifyUser(r.UserID, push.Payload{
				Title: "Task overdue",
				Body:  fmt.Sprintf("%q was due %s", r.Title, r.DueDate.Format("Jan 2")),
				Tag:   fmt.Sprintf("task-overdue-%d", r.TaskID),
			})
		}
		if _, ok := notifiedHouses[r.HouseID]; !ok {
			s.hub.Broadcast(r.HouseID, realtime.NewEvent("task", "overdue", r.TaskID))
			notifiedHouses[r.HouseID] = struct{}{}
		}
	}
	s.logger.Info("reminder sweep complete", "reminders", len(reminders))
}
