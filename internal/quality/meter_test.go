package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/adaptive-chess/internal/chess"
	"github.com/park285/adaptive-chess/internal/chess/uci"
	"github.com/park285/adaptive-chess/internal/rules"
)

type fakeAnalyzer struct {
	lines map[string][]chess.Line
	err   error
	calls []string
}

func (f *fakeAnalyzer) BestMoves(_ context.Context, fen string, depth, count int) ([]chess.Line, error) {
	f.calls = append(f.calls, fen)
	if f.err != nil {
		return nil, f.err
	}
	return f.lines[fen], nil
}

type mapCache struct {
	data   map[string][]chess.Line
	stores int
}

func (c *mapCache) Lookup(_ context.Context, fen string, _, _ int) ([]chess.Line, bool) {
	l, ok := c.data[fen]
	return l, ok
}

func (c *mapCache) Store(_ context.Context, fen string, _, _ int, lines []chess.Line) {
	c.data[fen] = lines
	c.stores++
}

func mustApply(t *testing.T, pos rules.Position, moves ...string) rules.Position {
	t.Helper()
	for _, mv := range moves {
		next, err := pos.Apply(mv)
		if err != nil {
			t.Fatalf("apply %s: %v", mv, err)
		}
		pos = next
	}
	return pos
}

func TestBestMoveIsZeroLossWithSingleAnalysis(t *testing.T) {
	start := rules.New().Start()
	fa := &fakeAnalyzer{lines: map[string][]chess.Line{
		start.FEN(): {{Move: "e2e4", Eval: 35}},
	}}

	m, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, start, "E2E4")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if m.Loss != 0 || m.Move != "e2e4" {
		t.Fatalf("unexpected measurement: %+v", m)
	}
	if len(fa.calls) != 1 {
		t.Fatalf("expected one analysis, got %d", len(fa.calls))
	}
	if m.After.SideToMove() != rules.Black {
		t.Fatalf("after position not advanced")
	}
}

func TestLossFromReplyEvaluation(t *testing.T) {
	start := rules.New().Start()
	after := mustApply(t, start, "a2a3")
	fa := &fakeAnalyzer{lines: map[string][]chess.Line{
		start.FEN(): {{Move: "e2e4", Eval: 30}},
		after.FEN(): {{Move: "e7e5", Eval: 50}},
	}}

	m, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, start, "a2a3")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if m.PlayedEval != -50 || m.Loss != 80 {
		t.Fatalf("unexpected measurement: %+v", m)
	}
}

func TestBetterThanBestIsZero(t *testing.T) {
	start := rules.New().Start()
	after := mustApply(t, start, "d2d4")
	fa := &fakeAnalyzer{lines: map[string][]chess.Line{
		start.FEN(): {{Move: "e2e4", Eval: 30}},
		after.FEN(): {{Move: "d7d5", Eval: -100}},
	}}

	m, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, start, "d2d4")
	if err != nil || m.Loss != 0 {
		t.Fatalf("got %+v, %v", m, err)
	}
}

func TestLossIsCapped(t *testing.T) {
	start := rules.New().Start()
	after := mustApply(t, start, "f2f3")
	fa := &fakeAnalyzer{lines: map[string][]chess.Line{
		start.FEN(): {{Move: "e2e4", Eval: 30}},
		after.FEN(): {{Move: "e7e5", Eval: uci.MateScore - 3}},
	}}

	m, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, start, "f2f3")
	if err != nil || m.Loss != LossCap {
		t.Fatalf("got %+v, %v", m, err)
	}
}

func TestDeliveredMateSkipsReplyAnalysis(t *testing.T) {
	before := mustApply(t, rules.New().Start(), "f2f3", "e7e5", "g2g4")
	fa := &fakeAnalyzer{lines: map[string][]chess.Line{
		before.FEN(): {{Move: "b8c6", Eval: uci.MateScore - 1}},
	}}

	m, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, before, "d8h4")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if m.PlayedEval != uci.MateScore || m.Loss != 0 {
		t.Fatalf("unexpected measurement: %+v", m)
	}
	if len(fa.calls) != 1 {
		t.Fatalf("terminal position must not be analysed, calls=%d", len(fa.calls))
	}
}

func TestStalemateCountsAsDraw(t *testing.T) {
	before, err := rules.New().Parse("7k/8/6K1/8/8/8/8/5Q2 w - - 0 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fa := &fakeAnalyzer{lines: map[string][]chess.Line{
		before.FEN(): {{Move: "f1f8", Eval: uci.MateScore - 1}},
	}}

	m, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, before, "f1f7")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if m.PlayedEval != 0 || m.Loss != LossCap {
		t.Fatalf("unexpected measurement: %+v", m)
	}
}

func TestAnalyzerFailureIsReported(t *testing.T) {
	cause := errors.New("engine down")
	fa := &fakeAnalyzer{err: cause}

	_, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, rules.New().Start(), "e2e4")
	if !errors.Is(err, ErrAnalysisFailed) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped analysis failure, got %v", err)
	}

	empty := &fakeAnalyzer{lines: map[string][]chess.Line{}}
	if _, err := NewMeter(Config{}, nil, nil).Score(context.Background(), empty, rules.New().Start(), "e2e4"); !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("empty analysis must fail, got %v", err)
	}
}

func TestIllegalMoveNeverReachesEngine(t *testing.T) {
	fa := &fakeAnalyzer{}
	_, err := NewMeter(Config{}, nil, nil).Score(context.Background(), fa, rules.New().Start(), "e2e5")
	if !errors.Is(err, rules.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if len(fa.calls) != 0 {
		t.Fatalf("engine called for illegal move")
	}
}

func TestCacheServesRepeatedPositions(t *testing.T) {
	start := rules.New().Start()
	after := mustApply(t, start, "a2a3")
	fa := &fakeAnalyzer{lines: map[string][]chess.Line{
		start.FEN(): {{Move: "e2e4", Eval: 30}},
		after.FEN(): {{Move: "e7e5", Eval: 10}},
	}}
	c := &mapCache{data: map[string][]chess.Line{}}
	meter := NewMeter(Config{}, c, nil)

	first, err := meter.Score(context.Background(), fa, start, "a2a3")
	if err != nil {
		t.Fatalf("first score: %v", err)
	}
	second, err := meter.Score(context.Background(), fa, start, "a2a3")
	if err != nil {
		t.Fatalf("second score: %v", err)
	}
	if first.Loss != 40 || second.Loss != 40 {
		t.Fatalf("losses: %d %d", first.Loss, second.Loss)
	}
	if len(fa.calls) != 2 || c.stores != 2 {
		t.Fatalf("expected cached second run, calls=%d stores=%d", len(fa.calls), c.stores)
	}
}
