package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client in the given house with a send channel but
// no real connection.
func mockClient(hub *Hub, houseID int64) *Client {
	return &Client{
		hub:     hub,
		conn:    nil,
		houseID: houseID,
		send:    make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(1); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToHouse(t *testing.T) {
	hub := NewHub(slog.Default())

	inHouse := mockClient(hub, 1)
	alsoInHouse := mockClient(hub, 1)
	neighbor := mockClient(hub, 2)
	hub.Register(inHouse)
	hub.Register(alsoInHouse)
	hub.Register(neighbor)

	hub.Broadcast(1, NewEvent("task", "created", 42))

	for _, c := range []*Client{inHouse, alsoInHouse} {
		select {
		case data := <-c.send:
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "task_created" {
				t.Errorf("type = %s, want task_created", got.Type)
			}
			if got.ID != 42 {
				t.Errorf("id = %d, want 42", got.ID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}

	select {
	case <-neighbor.send:
		t.Fatal("client in another house should not receive the event")
	default:
	}

	hub.Unregister(inHouse)
	hub.Unregister(alsoInHouse)
	hub.Unregister(neighbor)
}

func TestBroadcastEmptyRoom(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(99, NewEvent("task", "completed", 1))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(1, NewEvent("task", "updated", int64(i)))
	}

	// This should drop the event, not panic or block
	hub.Broadcast(1, NewEvent("task", "updated", 999))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d events, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("member", "role_changed", 5)
	if ev.Type != "member_role_changed" {
		t.Errorf("type = %s, want member_role_changed", ev.Type)
	}
	if ev.Entity != "member" {
		t.Errorf("entity = %s, want member", ev.Entity)
	}
	if ev.Action != "role_changed" {
		t.Errorf("action = %s, want role_changed", ev.Action)
	}
	if ev.ID != 5 {
		t.Errorf("id = %d, want 5", ev.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		houseID := int64(i%3 + 1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, houseID)
			hub.Register(c)
			hub.Broadcast(houseID, NewEvent("task", "created", 0))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	for houseID := int64(1); houseID <= 3; houseID++ {
		if got := hub.ClientCount(houseID); got != 0 {
			t.Errorf("house %d: expected 0 clients, got %d", houseID, got)
		}
	}
}
