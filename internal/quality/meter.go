// Package quality measures how much evaluation a move gives up compared with
// the engine's best move in the same position.
package quality

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/adaptive-chess/internal/chess"
	"github.com/park285/adaptive-chess/internal/chess/uci"
	"github.com/park285/adaptive-chess/internal/rules"
)

const (
	AnalysisDepth = 8
	LossCap       = 1000
)

var ErrAnalysisFailed = errors.New("move analysis failed")

// Analyzer is the slice of the engine gateway the meter needs.
type Analyzer interface {
	BestMoves(ctx context.Context, fen string, depth, count int) ([]chess.Line, error)
}

// Cache memoizes analyses. Implementations swallow their own errors.
type Cache interface {
	Lookup(ctx context.Context, fen string, depth, count int) ([]chess.Line, bool)
	Store(ctx context.Context, fen string, depth, count int, lines []chess.Line)
}

type Config struct {
	Depth   int
	LossCap int
}

type Measurement struct {
	Move       string
	BestMove   string
	BestEval   int
	PlayedEval int
	Loss       int
	After      rules.Position
}

type Meter struct {
	depth   int
	lossCap int
	cache   Cache
	logger  *zap.Logger
}

func NewMeter(cfg Config, cache Cache, logger *zap.Logger) *Meter {
	if cfg.Depth <= 0 {
		cfg.Depth = AnalysisDepth
	}
	if cfg.LossCap <= 0 {
		cfg.LossCap = LossCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Meter{depth: cfg.Depth, lossCap: cfg.LossCap, cache: cache, logger: logger}
}

func (m *Meter) Depth() int { return m.depth }

// Score evaluates move in before. Loss is best-eval minus played-eval from the
// mover's side, floored at zero and capped.
func (m *Meter) Score(ctx context.Context, a Analyzer, before rules.Position, move string) (Measurement, error) {
	after, err := before.Apply(move)
	if err != nil {
		return Measurement{}, err
	}
	played, _ := before.Validate(move)

	best, err := m.bestLine(ctx, a, before.FEN())
	if err != nil {
		return Measurement{}, err
	}

	meas := Measurement{Move: played, BestMove: best.Move, BestEval: best.Eval, After: after}
	if played == best.Move {
		meas.PlayedEval = best.Eval
		return meas, nil
	}

	switch out := after.Outcome(); {
	case out.Result == rules.Draw:
		meas.PlayedEval = 0
	case out.Terminal():
		meas.PlayedEval = uci.MateScore
	default:
		reply, err := m.bestLine(ctx, a, after.FEN())
		if err != nil {
			return Measurement{}, err
		}
		meas.PlayedEval = -reply.Eval
	}

	meas.Loss = clampLoss(best.Eval-meas.PlayedEval, m.lossCap)
	return meas, nil
}

// Best returns the top line for fen at the analysis depth, through the cache.
func (m *Meter) Best(ctx context.Context, a Analyzer, fen string) (chess.Line, error) {
	return m.bestLine(ctx, a, fen)
}

func (m *Meter) bestLine(ctx context.Context, a Analyzer, fen string) (chess.Line, error) {
	if m.cache != nil {
		if lines, ok := m.cache.Lookup(ctx, fen, m.depth, 1); ok {
			return lines[0], nil
		}
	}
	lines, err := a.BestMoves(ctx, fen, m.depth, 1)
	if err != nil {
		return chess.Line{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if len(lines) == 0 {
		return chess.Line{}, fmt.Errorf("%w: no lines for %s", ErrAnalysisFailed, fen)
	}
	if m.cache != nil {
		m.cache.Store(ctx, fen, m.depth, 1, lines)
	}
	return lines[0], nil
}

func clampLoss(loss, limit int) int {
	if loss < 0 {
		return 0
	}
	if loss > limit {
		return limit
	}
	return loss
}
