package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/adaptive-chess/internal/chess"
	"github.com/park285/adaptive-chess/internal/chess/uci"
)

func TestLegalMovesAtStart(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	if _, err := h.m.Create(ctx, CreateRequest{ID: "demo"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	moves, err := h.m.LegalMoves("demo")
	if err != nil {
		t.Fatalf("legal: %v", err)
	}
	if len(moves) != 20 {
		t.Fatalf("expected 20 opening moves, got %d", len(moves))
	}
	found := false
	for _, mv := range moves {
		if mv.Move == "e2e4" {
			found = mv.SAN == "e4"
		}
	}
	if !found {
		t.Fatalf("e2e4 (e4) missing from %+v", moves)
	}
	if _, err := h.m.LegalMoves("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHintOnHumanTurnOnly(t *testing.T) {
	h := newHarness(t, Config{})
	h.next = func() *fakeEngine { return &fakeEngine{best: "g1f3"} }
	ctx := context.Background()
	if _, err := h.m.Create(ctx, CreateRequest{ID: "demo"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	hint, err := h.m.Hint(ctx, "demo")
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if hint.Move != "g1f3" || hint.SAN != "Nf3" || hint.Depth != 8 {
		t.Fatalf("unexpected hint: %+v", hint)
	}
	view, _ := h.m.Get("demo")
	if len(view.MovesUCI) != 0 || view.SampleCount != 0 {
		t.Fatalf("hint must not change the session: %+v", view)
	}

	if _, err := h.m.SubmitMove(ctx, "demo", "e2e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := h.m.Hint(ctx, "demo"); !errors.Is(err, ErrWrongTurn) {
		t.Fatalf("expected ErrWrongTurn on bot turn, got %v", err)
	}
}

func TestHintEngineFailure(t *testing.T) {
	h := newHarness(t, Config{})
	h.next = func() *fakeEngine { return &fakeEngine{bestErr: errors.New("engine died")} }
	ctx := context.Background()
	if _, err := h.m.Create(ctx, CreateRequest{ID: "demo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.m.Hint(ctx, "demo"); Kind(err) != KindEngineUnavailable {
		t.Fatalf("expected engine unavailable, got %v", err)
	}
}

// stallingSource hangs its first search until the attempt deadline, then
// answers e2e4.
type stallingSource struct {
	searches atomic.Int32
}

type stallingProcess struct{ src *stallingSource }

func (p stallingProcess) Search(ctx context.Context, _ uci.SearchRequest) (uci.SearchResponse, error) {
	if p.src.searches.Add(1) == 1 {
		<-ctx.Done()
		return uci.SearchResponse{}, ctx.Err()
	}
	return uci.SearchResponse{
		BestMove:   "e2e4",
		Candidates: []uci.Candidate{{Move: "e2e4", EvalCP: 25}},
	}, nil
}

func (s *stallingSource) Acquire(context.Context) (chess.Process, error) {
	return stallingProcess{src: s}, nil
}

func (s *stallingSource) Release(chess.Process, error) {}

func (s *stallingSource) Close() error { return nil }

func TestStalledAnalysisIsRetriedWithProductionTimeouts(t *testing.T) {
	const timeout = 200 * time.Millisecond
	src := &stallingSource{}
	gw := chess.NewGatewayWithSource(src, timeout, nil)
	opener := OpenerFunc(func(ctx context.Context) (Engine, error) {
		h, err := gw.Open(ctx)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
	m, err := NewManager(Deps{Opener: opener}, Config{EngineTimeout: timeout, EvictInterval: -1}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	ctx := context.Background()
	if _, err := m.Create(ctx, CreateRequest{ID: "demo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := m.SubmitMove(ctx, "demo", "e2e4")
	if err != nil {
		t.Fatalf("submit: %v (searches=%d)", err, src.searches.Load())
	}
	if !res.Scored || res.Loss != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := src.searches.Load(); got != 2 {
		t.Fatalf("expected one retry, got %d searches", got)
	}
}
