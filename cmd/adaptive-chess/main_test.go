package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

type scriptedBackend struct {
	moves   []string
	bots    int
	deleted bool
	botErr  error
	overOn  string
}

func (b *scriptedBackend) Create(_ context.Context, id string, depth *int) (*chessdto.SessionView, error) {
	if id == "" {
		id = "generated"
	}
	d := 4
	if depth != nil {
		d = *depth
	}
	return &chessdto.SessionView{SessionID: id, Depth: d, Rating: 1200}, nil
}

func (b *scriptedBackend) Get(_ context.Context, id string) (*chessdto.SessionView, error) {
	return &chessdto.SessionView{SessionID: id, Status: "White to move", MovesUCI: b.moves}, nil
}

func (b *scriptedBackend) Move(_ context.Context, _ string, move string) (*chessdto.MoveResponse, error) {
	if move == "zz" {
		return nil, errors.New("invalid_move: zz")
	}
	b.moves = append(b.moves, move)
	loss := 0
	return &chessdto.MoveResponse{
		Move: move, SAN: move, Loss: &loss, GameOver: move == b.overOn,
		Session: &chessdto.SessionView{Rating: 2800, Depth: 7, Result: "1-0", Method: "checkmate"},
	}, nil
}

func (b *scriptedBackend) Bot(context.Context, string) (*chessdto.BotMoveResponse, error) {
	if b.botErr != nil {
		return nil, b.botErr
	}
	b.bots++
	return &chessdto.BotMoveResponse{Move: "e7e5", SAN: "e5", Depth: 7}, nil
}

func (b *scriptedBackend) Legal(_ context.Context, id string) (*chessdto.LegalMoves, error) {
	return &chessdto.LegalMoves{SessionID: id, Moves: []chessdto.LegalMove{{Move: "e2e4", SAN: "e4"}, {Move: "g1f3", SAN: "Nf3"}}}, nil
}

func (b *scriptedBackend) Hint(_ context.Context, id string) (*chessdto.HintResponse, error) {
	return &chessdto.HintResponse{SessionID: id, Move: "e2e4", SAN: "e4", Eval: 31, Depth: 8}, nil
}

func (b *scriptedBackend) Delete(context.Context, string) error {
	b.deleted = true
	return nil
}

func (b *scriptedBackend) Close() error { return nil }

func depthOf(d int) *int { return &d }

func TestPlayGameHintAndLegal(t *testing.T) {
	var out bytes.Buffer
	b := &scriptedBackend{}
	in := strings.NewReader("help\nlegal\nhint\n")

	if err := playGame(context.Background(), b, chesspresenter.NewPresenter(&out, nil), in, "demo", nil); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(b.moves) != 0 || b.bots != 0 {
		t.Fatalf("hint and legal must not play: moves=%v bots=%d", b.moves, b.bots)
	}
	text := out.String()
	for _, want := range []string{
		"Bot depth: 4",
		"hint     ask the engine",
		"Legal moves (2): e2e4 (e4), g1f3 (Nf3)",
		"Hint: e2e4 (e4), eval +0.31 at depth 8",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}
}

func TestPlayGameBotRepliesAfterEachMove(t *testing.T) {
	var out bytes.Buffer
	b := &scriptedBackend{}
	in := strings.NewReader("e2e4\n\nzz\ng1f3\nquit\n")

	if err := playGame(context.Background(), b, chesspresenter.NewPresenter(&out, nil), in, "demo", depthOf(3)); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(b.moves) != 2 || b.bots != 2 || !b.deleted {
		t.Fatalf("moves=%v bots=%d deleted=%v", b.moves, b.bots, b.deleted)
	}
	text := out.String()
	for _, want := range []string{"Game demo started", "You played e2e4. Best move!", "Bot played e5 (depth 7).", "Error: invalid_move: zz", "Game ended."} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}
}

func TestPlayGameStopsWhenHumanEndsGame(t *testing.T) {
	var out bytes.Buffer
	b := &scriptedBackend{overOn: "d1h5"}
	in := strings.NewReader("d1h5\ne2e4\n")

	if err := playGame(context.Background(), b, chesspresenter.NewPresenter(&out, nil), in, "", nil); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(b.moves) != 1 || b.bots != 0 {
		t.Fatalf("moves=%v bots=%d", b.moves, b.bots)
	}
	if !strings.Contains(out.String(), "You won!") {
		t.Fatalf("missing outcome: %q", out.String())
	}
}

func TestPlayGameBotFailureKeepsPlaying(t *testing.T) {
	var out bytes.Buffer
	b := &scriptedBackend{botErr: errors.New("engine_unavailable")}
	in := strings.NewReader("e2e4\nstatus\n")

	if err := playGame(context.Background(), b, chesspresenter.NewPresenter(&out, nil), in, "demo", depthOf(2)); err != nil {
		t.Fatalf("play: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Bot failed: engine_unavailable") || !strings.Contains(text, "White to move") {
		t.Fatalf("unexpected output: %q", text)
	}
}

func TestEstimateCommand(t *testing.T) {
	t.Setenv("LOG_TO_CONSOLE", "false")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"estimate-elo", "--acpl", "100"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := out.String(); got != "ACPL 100.0 → estimated rating 1118, recommended bot depth 1\n" {
		t.Fatalf("got %q", got)
	}

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"estimate-elo", "--acpl", "-5"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for negative acpl")
	}
}

func TestAnalyzeRejectsBadFEN(t *testing.T) {
	t.Setenv("LOG_TO_CONSOLE", "false")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze", "--fen", "not a fen"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for invalid fen")
	}
}
