package httpapi

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

	"github.com/808vita/sdg-6-water-agents/internal/config"
	"github.com/808vita/sdg-6-water-agents/internal/protocol"
	"github.com/808vita/sdg-6-water-agents/internal/session"
)

type fakeTurns struct {
	reply      protocol.ChatReply
	err        error
	gotSession string
	cleared    []string
}

func (f *fakeTurns) HandleTurn(_ context.Context, sessionID string, _ protocol.ChatRequest) (protocol.ChatReply, error) {
	f.gotSession = sessionID
	return f.reply, f.err
}

func (f *fakeTurns) ClearSession(_ context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return nil
}

func newTestServer(turns TurnHandler) (*Server, *session.Manager) {
	cfg := config.Config{
		AllowAnyOrigin:           true,
		SessionInactivityTimeout: 10 * time.Minute,
	}
	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	return New(cfg, sessions, turns, nil, NewHub()), sessions
}

func postChat(t *testing.T, handler http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatCreatesSessionWhenAbsent(t *testing.T) {
	turns := &fakeTurns{reply: protocol.ChatReply{
		MessageText: "Hello!",
		MapCommands: []protocol.MapCommand{},
	}}
	srv, sessions := newTestServer(turns)

	rec := postChat(t, srv.Router(), `{"messages": [{"sender": "user", "text": "Hello"}]}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	sid := rec.Header().Get("X-Session-Id")
	if sid == "" {
		t.Fatalf("X-Session-Id header missing")
	}
	if _, err := sessions.Get(sid); err != nil {
		t.Fatalf("session %q not registered: %v", sid, err)
	}
	if turns.gotSession != sid {
		t.Fatalf("turn session = %q, want %q", turns.gotSession, sid)
	}

	var envelope struct {
		Data protocol.ChatReply `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.MessageText != "Hello!" {
		t.Fatalf("messageText = %q", envelope.Data.MessageText)
	}
	if envelope.Data.MapCommands == nil {
		t.Fatalf("mapCommands missing, want empty array")
	}
}

func TestChatReusesProvidedSession(t *testing.T) {
	turns := &fakeTurns{reply: protocol.ChatReply{MessageText: "ok", MapCommands: []protocol.MapCommand{}}}
	srv, sessions := newTestServer(turns)
	sess := sessions.Create()

	rec := postChat(t, srv.Router(), `{"messages": [{"sender": "user", "text": "Hi"}]}`,
		map[string]string{"X-Session-Id": sess.ID})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if turns.gotSession != sess.ID {
		t.Fatalf("turn session = %q, want %q", turns.gotSession, sess.ID)
	}
	got, _ := sessions.Get(sess.ID)
	if got.TurnCount != 1 {
		t.Fatalf("TurnCount = %d, want 1", got.TurnCount)
	}
}

func TestChatRejectsInvalidPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"no messages", `{"messages": []}`},
		{"last not user", `{"messages": [{"sender": "bot", "text": "hi"}]}`},
		{"blank text", `{"messages": [{"sender": "user", "text": "   "}]}`},
	}
	srv, _ := newTestServer(&fakeTurns{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postChat(t, srv.Router(), tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChatUnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(&fakeTurns{})
	rec := postChat(t, srv.Router(), `{"messages": [{"sender": "user", "text": "Hi"}]}`,
		map[string]string{"X-Session-Id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestChatPipelineFailureIs500(t *testing.T) {
	srv, _ := newTestServer(&fakeTurns{err: errors.New("data collection failed: news: down")})
	rec := postChat(t, srv.Router(), `{"messages": [{"sender": "user", "text": "water shortage in Chennai?"}]}`, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("error field empty, body = %s", rec.Body.String())
	}
	if rec.Header().Get("X-Session-Id") == "" {
		t.Fatalf("X-Session-Id header missing on failure; the user turn was persisted under it")
	}
}

func TestEndSessionClearsMemory(t *testing.T) {
	turns := &fakeTurns{}
	srv, sessions := newTestServer(turns)
	sess := sessions.Create()

	req := httptest.NewRequest(http.MethodPost, "/v1/session/"+sess.ID+"/end", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(turns.cleared) != 1 || turns.cleared[0] != sess.ID {
		t.Fatalf("cleared = %v, want [%s]", turns.cleared, sess.ID)
	}
	if _, err := sessions.Get(sess.ID); err != session.ErrNotFound {
		t.Fatalf("Get() after end = %v, want ErrNotFound", err)
	}
}

func TestCreateSessionEndpoint(t *testing.T) {
	srv, sessions := newTestServer(&fakeTurns{})
	req := httptest.NewRequest(http.MethodPost, "/v1/session", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, err := sessions.Get(resp.SessionID); err != nil {
		t.Fatalf("created session not found: %v", err)
	}
}

func TestMapFeedDeliversCommands(t *testing.T) {
	srv, _ := newTestServer(&fakeTurns{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/map/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("feed client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.hub.Publish(protocol.MapCommand{
		Command:  protocol.CommandUpdateMarker,
		Location: "Chennai",
		Risk:     protocol.RiskHigh,
		Summary:  "Acute shortage.",
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var cmd protocol.MapCommand
	if err := conn.ReadJSON(&cmd); err != nil {
		t.Fatalf("read command: %v", err)
	}
	if cmd.Command != protocol.CommandUpdateMarker || cmd.Location != "Chennai" {
		t.Fatalf("command = %+v", cmd)
	}
}
