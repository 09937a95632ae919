package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/adaptive-chess/internal/events"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(chessdto.SessionView{SessionID: "demo", Depth: 4})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(2*time.Second))
	view, err := c.GetSession(context.Background(), "demo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.SessionID != "demo" || calls.Load() != 3 {
		t.Fatalf("unexpected: view=%+v calls=%d", view, calls.Load())
	}
}

func TestPostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(chessdto.ErrorResponse{Code: "engine_unavailable", Message: "engine crashed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SubmitMove(context.Background(), "demo", "e2e4")
	var de chessdto.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.Code != "engine_unavailable" || de.Status != http.StatusServiceUnavailable || !de.Retryable {
		t.Fatalf("unexpected error: %+v", de)
	}
	if calls.Load() != 1 {
		t.Fatalf("POST retried: %d calls", calls.Load())
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"session not found: x"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetSession(context.Background(), "x")
	var de chessdto.DomainError
	if !errors.As(err, &de) || de.Code != "not_found" || de.Retryable {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx retried: %d calls", calls.Load())
	}
}

func TestCreateSessionSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chessdto.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || r.URL.Path != "/session" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Depth == nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(chessdto.SessionView{SessionID: req.SessionID, Depth: *req.Depth})
	}))
	defer srv.Close()

	depth := 6
	view, err := NewClient(srv.URL + "/").CreateSession(context.Background(), "demo", &depth)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.SessionID != "demo" || view.Depth != 6 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestLegalMovesAndHintPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/demo/legal":
			_ = json.NewEncoder(w).Encode(chessdto.LegalMoves{SessionID: "demo", Moves: []chessdto.LegalMove{{Move: "e2e4", SAN: "e4"}}})
		case "/session/demo/hint":
			_ = json.NewEncoder(w).Encode(chessdto.HintResponse{SessionID: "demo", Move: "d2d4", SAN: "d4", Depth: 8})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	legal, err := c.LegalMoves(context.Background(), "demo")
	if err != nil || len(legal.Moves) != 1 || legal.Moves[0].SAN != "e4" {
		t.Fatalf("legal: %+v %v", legal, err)
	}
	hint, err := c.Hint(context.Background(), "demo")
	if err != nil || hint.Move != "d2d4" || hint.Depth != 8 {
		t.Fatalf("hint: %+v %v", hint, err)
	}
}

func TestEventsURL(t *testing.T) {
	cases := map[string]string{
		"http://127.0.0.1:8000":    "ws://127.0.0.1:8000/session/demo/events",
		"https://chess.local/api/": "wss://chess.local/api/session/demo/events",
	}
	for in, want := range cases {
		got, err := EventsURL(in, "demo")
		if err != nil || got != want {
			t.Fatalf("EventsURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := EventsURL("ftp://x", "demo"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}

func TestFollowUntilNormalClosure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		ctx := r.Context()
		_ = wsjson.Write(ctx, conn, events.Event{Type: events.HumanMoved, SessionID: "demo", Move: "e2e4"})
		_ = wsjson.Write(ctx, conn, events.Event{Type: events.SessionDeleted, SessionID: "demo"})
		_ = conn.Close(websocket.StatusNormalClosure, "deleted")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got []events.Type
	err := Follow(ctx, srv.URL, "demo", func(ev events.Event) { got = append(got, ev.Type) })
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if len(got) != 2 || got[0] != events.HumanMoved || got[1] != events.SessionDeleted {
		t.Fatalf("unexpected events: %v", got)
	}
}
