package reminder

import (
	"log/slog"
	"testing"
	"time"

	"github.com/hearthapp/hearth/internal/database"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/realtime"
	"github.com/hearthapp/hearth/internal/store"
)

func TestSweepBroadcastsOncePerHouse(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	houses := store.NewHouseStore(db)
	tasks := store.NewTaskStore(db)

	u, _ := users.Create("alice@example.com", "Alice", "hash")
	h, err := houses.CreateWithOwner("Test House", "", u.ID, "Alice")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	m, _ := houses.GetMember(h.ID, u.ID)

	past := time.Now().Add(-24 * time.Hour).UTC()
	for i := 0; i < 2; i++ {
		if _, err := tasks.CreateWithAssignees(h.ID, m.ID, store.CreateTaskParams{
			Title: "late", Priority: model.PriorityMedium, DueDate: &past,
			AssigneeIDs: []int64{m.ID},
		}); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	hub := realtime.NewHub(slog.Default())
	listener := realtime.NewClient(hub, nil, h.ID)
	hub.Register(listener)
	t.Cleanup(func() { hub.Unregister(listener) })

	s := New(tasks, nil, hub, slog.Default())
	s.Sweep()

	// Two overdue tasks, but the house room hears about it once.
	events := 0
	for {
		select {
		case <-listener.Send():
			events++
		default:
			if events != 1 {
				t.Errorf("events = %d, want 1", events)
			}
			return
		}
	}
}

func TestSweepNoOverdueTasks(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := realtime.NewHub(slog.Default())
	s := New(store.NewTaskStore(db), nil, hub, slog.Default())

	// Nothing to do, nothing to panic about.
	s.Sweep()
}
