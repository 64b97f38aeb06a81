package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"Mansoor88-6/session-tracker/internal/message"
)

func TestSendEncodesAction(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL, time.Second, zaptest.NewLogger(t))
	var ack message.Ack
	if err := c.Send(context.Background(), message.StartSession{SessionType: "study"}, &ack); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !ack.Success {
		t.Fatal("ack.Success = false")
	}
	if got["action"] != "startSession" || got["sessionType"] != "study" {
		t.Fatalf("request body = %v", got)
	}
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"active":true,"sessionType":"work","duration":1500,"currentSite":"example.com","sitesCount":1,"startTime":10}`))
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL, time.Second, zaptest.NewLogger(t))
	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Active || status.SessionType != "work" || status.Duration == nil || *status.Duration != 1500 {
		t.Fatalf("status = %+v", status)
	}
}

func TestSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Unknown action"}`))
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL, time.Second, zaptest.NewLogger(t))
	err := c.Send(context.Background(), message.StopSession{}, nil)

	var agentErr *AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("err = %v, want *AgentError", err)
	}
	if agentErr.StatusCode != http.StatusBadRequest || agentErr.Message != "Unknown action" {
		t.Fatalf("agent error = %+v", agentErr)
	}
}
