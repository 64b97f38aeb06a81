package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/notifier"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Connected() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame %s: %v", data, err)
	}
	return frame
}

func TestSendWithoutReceiver(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	if err := h.SendToTab(1, message.HideWarning()); !errors.Is(err, ErrNoReceiver) {
		t.Fatalf("SendToTab error = %v, want ErrNoReceiver", err)
	}
}

func TestSendToTabAndNotify(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	conn := dial(t, h)

	if err := h.SendToTab(7, message.StartGradualWarning(models.SessionWork, 60)); err != nil {
		t.Fatalf("SendToTab: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.TabID == nil || *frame.TabID != 7 {
		t.Fatalf("tabId = %v", frame.TabID)
	}
	if frame.Message.Action != message.TabStartGradualWarning || frame.Message.WarningDelay != 60 {
		t.Fatalf("message = %+v", frame.Message)
	}

	if err := h.Notify(context.Background(), notifier.Notification{ID: "n1", Title: "Site Blocked"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	frame = readFrame(t, conn)
	if frame.Notification == nil || frame.Notification.Title != "Site Blocked" {
		t.Fatalf("notification frame = %+v", frame)
	}

	if err := h.Clear(context.Background(), "n1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if frame := readFrame(t, conn); frame.ClearNotification != "n1" {
		t.Fatalf("clear frame = %+v", frame)
	}
}

func TestInboundFramesReachSink(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	got := make(chan string, 1)
	h.SetEventSink(func(_ context.Context, data []byte) error {
		got <- string(data)
		return nil
	})
	conn := dial(t, h)

	payload := `{"type":"tabRemoved","tabId":3}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case data := <-got:
		if data != payload {
			t.Fatalf("sink got %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sink never called")
	}
}
