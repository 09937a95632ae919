package rules

import (
	"errors"
	"testing"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestNormalizeMove(t *testing.T) {
	good := map[string]string{
		"e2e4":    "e2e4",
		" E2E4 ":  "e2e4",
		"a7a8Q":   "a7a8q",
		"h7h8n\n": "h7h8n",
	}
	for in, want := range good {
		got, err := NormalizeMove(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	for _, in := range []string{"invalid", "", "e2e9", "e2e4k", "i2i4", "Nf3", "e2-e4"} {
		if _, err := NormalizeMove(in); !errors.Is(err, ErrMalformedMove) {
			t.Fatalf("%q: expected ErrMalformedMove, got %v", in, err)
		}
	}
}

func TestStartPosition(t *testing.T) {
	pos := New().Start()
	if pos.FEN() != startFEN {
		t.Fatalf("fen: %s", pos.FEN())
	}
	if pos.SideToMove() != White {
		t.Fatalf("white should move first")
	}
	if got := len(pos.LegalMoves()); got != 20 {
		t.Fatalf("legal moves: got %d want 20", got)
	}
	if pos.Outcome().Terminal() || pos.Ply() != 0 {
		t.Fatalf("unexpected start state: %+v ply=%d", pos.Outcome(), pos.Ply())
	}
}

func TestApplyReturnsNewPosition(t *testing.T) {
	start := New().Start()
	next, err := start.Apply("E2E4")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if start.FEN() != startFEN {
		t.Fatalf("receiver mutated: %s", start.FEN())
	}
	if next.SideToMove() != Black || next.Ply() != 1 {
		t.Fatalf("unexpected next position: side=%v ply=%d", next.SideToMove(), next.Ply())
	}
}

func TestValidateRejectsIllegal(t *testing.T) {
	pos := New().Start()
	if _, err := pos.Validate("e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if _, err := pos.Validate("invalid"); !errors.Is(err, ErrMalformedMove) {
		t.Fatalf("expected ErrMalformedMove, got %v", err)
	}
	if _, err := pos.Apply("e7e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("black move on white turn should be illegal, got %v", err)
	}
}

func TestSAN(t *testing.T) {
	pos := New().Start()
	if got := pos.SAN("g1f3"); got != "Nf3" {
		t.Fatalf("san: got %q", got)
	}
	if got := pos.SAN("e2e4"); got != "e4" {
		t.Fatalf("san: got %q", got)
	}
}

func TestCheckmateOutcome(t *testing.T) {
	pos := New().Start()
	var err error
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		pos, err = pos.Apply(mv)
		if err != nil {
			t.Fatalf("apply %s: %v", mv, err)
		}
	}
	out := pos.Outcome()
	if out.Result != BlackWon || out.Method != "checkmate" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(pos.LegalMoves()) != 0 {
		t.Fatalf("no moves expected after mate")
	}
	if _, err := pos.Validate("a2a3"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("moves after mate must be rejected, got %v", err)
	}
}

func TestStalemateOutcome(t *testing.T) {
	pos, err := New().Parse("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pos.SideToMove() != Black {
		t.Fatalf("black to move expected")
	}
	if len(pos.LegalMoves()) != 0 {
		t.Fatalf("stalemated side has no moves")
	}

	// reach the same stalemate by a white move
	before, err := New().Parse("7k/8/6K1/8/8/8/8/5Q2 w - - 0 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	after, err := before.Apply("f1f7")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	out := after.Outcome()
	if out.Result != Draw || out.Method != "stalemate" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestPromotionRequiresPiece(t *testing.T) {
	pos, err := New().Parse("8/P7/8/8/8/8/8/k6K w - - 0 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := pos.Validate("a7a8"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("promotion without piece should be illegal, got %v", err)
	}
	next, err := pos.Apply("a7a8q")
	if err != nil {
		t.Fatalf("apply promotion: %v", err)
	}
	if next.SideToMove() != Black {
		t.Fatalf("turn should pass to black")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := New().Parse("not a fen"); !errors.Is(err, ErrInvalidFEN) {
		t.Fatalf("expected ErrInvalidFEN, got %v", err)
	}
}
