package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/teslashibe/go-sahayak/internal/log"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu     sync.Mutex
	frames []Message
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch messageType {
	case websocket.TextMessage:
		f.frames = append(f.frames, NewTextMessage(data))
	case websocket.BinaryMessage:
		f.frames = append(f.frames, NewBinaryMessage(data))
	}
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                       {}
func (f *fakeConn) SetReadDeadline(time.Time) error          { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error         { return nil }
func (f *fakeConn) SetPongHandler(func(appData string) error) {}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) Frames() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.frames...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	h := New("turns", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	a, b := newFakeConn(), newFakeConn()
	go NewClient(h, a).Run()
	go NewClient(h, b).Run()
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastJSON(map[string]string{"turn_id": "t1"}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	h.Broadcast(NewBinaryMessage([]byte{0xFF, 0xFB}))

	for _, conn := range []*fakeConn{a, b} {
		waitFor(t, func() bool { return len(conn.Frames()) == 2 })
		frames := conn.Frames()
		if frames[0].Type != TextMessage || string(frames[0].Data) != `{"turn_id":"t1"}` {
			t.Errorf("first frame = %+v", frames[0])
		}
		if frames[1].Type != BinaryMessage {
			t.Errorf("second frame type = %v", frames[1].Type)
		}
	}
}

func TestHubUnregister(t *testing.T) {
	h := New("turns", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		NewClient(h, conn).Run()
		close(done)
	}()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	conn.Close()
	<-done
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestHubStopDisconnects(t *testing.T) {
	h := New("turns", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	<-stopped
	if h.IsRunning() {
		t.Error("hub should not be running")
	}
	select {
	case <-conn.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed")
	}

	// Clients arriving after shutdown are closed immediately.
	late := newFakeConn()
	NewClient(h, late).Run()
	select {
	case <-late.closed:
	default:
		t.Error("late client should be closed")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := New("turns", log.Discard())
	for i := 0; i < cap(h.broadcast)+3; i++ {
		h.Broadcast(NewTextMessage([]byte("{}")))
	}
	if h.Dropped() != 3 {
		t.Errorf("Dropped = %d, want 3", h.Dropped())
	}
}

func TestSlowSubscriberMissesMessages(t *testing.T) {
	h := New("turns", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	// Registered without pumps, so nothing drains its queue.
	slow := NewClient(h, newFakeConn())
	h.register <- slow
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	for i := 0; i < cap(slow.send)+2; i++ {
		h.Broadcast(NewTextMessage([]byte("{}")))
	}
	waitFor(t, func() bool { return h.Dropped() == 2 })

	if h.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, slow subscriber should stay connected", h.ClientCount())
	}
	if len(slow.send) != cap(slow.send) {
		t.Errorf("queued = %d, want %d", len(slow.send), cap(slow.send))
	}
}
