package chess

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/adaptive-chess/internal/chess/uci"
)

var (
	ErrEngineFatal       = errors.New("engine cannot be launched")
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrHandleClosed      = errors.New("engine handle closed")
	ErrNoMove            = errors.New("engine returned no move")
)

// Line is one analysed continuation. Eval is in centipawns from the side to
// move, with forced mates mapped to +-uci.MateScore sentinels.
type Line struct {
	Move string
	Eval int
	Mate int
	PV   []string
}

// Process is a single engine able to run searches.
type Process interface {
	Search(ctx context.Context, req uci.SearchRequest) (uci.SearchResponse, error)
}

// ProcessSource hands out engine processes. Release with a non-nil error
// discards the process.
type ProcessSource interface {
	Acquire(ctx context.Context) (Process, error)
	Release(p Process, err error)
	Close() error
}

type Config struct {
	BinaryPath     string
	MaxEngines     int
	Threads        int
	HashMB         int
	RequestTimeout time.Duration
}

type Gateway struct {
	source  ProcessSource
	fatal   error
	timeout time.Duration
	logger  *zap.Logger
}

// NewGateway never fails on a missing binary. The launch error is kept and
// reported by Open, so the service can start and refuse sessions instead.
func NewGateway(cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	hash := cfg.HashMB
	if hash <= 0 {
		hash = 16
	}
	g := &Gateway{timeout: cfg.RequestTimeout, logger: logger}
	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.BinaryPath,
		Capacity:   cfg.MaxEngines,
		Options:    uci.Options{Threads: cfg.Threads, HashMB: hash},
		Logger:     logger,
	})
	if err != nil {
		logger.Warn("engine pool unavailable", zap.String("binary", cfg.BinaryPath), zap.Error(err))
		g.fatal = err
		return g
	}
	g.source = poolSource{pool: pool}
	return g
}

// NewGatewayWithSource builds a gateway over an arbitrary process source.
func NewGatewayWithSource(src ProcessSource, timeout time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{source: src, timeout: timeout, logger: logger}
}

// Open verifies that an engine can be obtained and returns a handle bound to
// this gateway. Launch failures are reported as ErrEngineFatal.
func (g *Gateway) Open(ctx context.Context) (*Handle, error) {
	if g.fatal != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineFatal, g.fatal)
	}
	if g.source == nil {
		return nil, ErrEngineFatal
	}
	proc, err := g.source.Acquire(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrEngineFatal, err)
	}
	g.source.Release(proc, nil)
	return &Handle{id: uuid.NewString(), gw: g, slot: make(chan struct{}, 1)}, nil
}

func (g *Gateway) Close() error {
	if g.source == nil {
		return nil
	}
	return g.source.Close()
}

// Handle is a per-session view of the engine. Requests on one handle never
// overlap.
type Handle struct {
	id     string
	gw     *Gateway
	// slot is a one-token semaphore so a waiting request can give up on ctx.
	slot   chan struct{}
	closed atomic.Bool
}

func (h *Handle) ID() string { return h.id }

// BestMoves returns at most count lines for fen, best first.
func (h *Handle) BestMoves(ctx context.Context, fen string, depth, count int) ([]Line, error) {
	limits, err := SearchLimits(depth)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 1
	}
	req := uci.SearchRequest{FEN: fen, Limits: limits, MultiPV: count, Timeout: h.gw.timeout}
	resp, err := h.run(ctx, req, func(resp uci.SearchResponse) error {
		if len(resp.Candidates) == 0 {
			return ErrNoMove
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		lines = append(lines, Line{Move: c.Move, Eval: c.EvalCP, Mate: c.Mate, PV: c.Principal})
		if len(lines) == count {
			break
		}
	}
	return lines, nil
}

// PlayMove asks for the engine's chosen move at the given depth.
func (h *Handle) PlayMove(ctx context.Context, fen string, depth int) (string, error) {
	limits, err := SearchLimits(depth)
	if err != nil {
		return "", err
	}
	req := uci.SearchRequest{FEN: fen, Limits: limits, MultiPV: 1, Timeout: h.gw.timeout}
	resp, err := h.run(ctx, req, func(resp uci.SearchResponse) error {
		if resp.BestMove == "" {
			return ErrNoMove
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return resp.BestMove, nil
}

// Close is idempotent.
func (h *Handle) Close() error {
	h.closed.Store(true)
	return nil
}

func (h *Handle) run(ctx context.Context, req uci.SearchRequest, check func(uci.SearchResponse) error) (uci.SearchResponse, error) {
	if h.closed.Load() {
		return uci.SearchResponse{}, ErrHandleClosed
	}
	select {
	case h.slot <- struct{}{}:
	case <-ctx.Done():
		return uci.SearchResponse{}, fmt.Errorf("%w: %w", ErrEngineUnavailable, ctx.Err())
	}
	defer func() { <-h.slot }()
	if h.closed.Load() {
		return uci.SearchResponse{}, ErrHandleClosed
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		resp, err := h.attempt(ctx, req, check)
		if err == nil {
			return resp, nil
		}
		// an attempt that hit its own deadline is retried while the caller still waits
		if ctxErr := ctx.Err(); ctxErr != nil {
			return uci.SearchResponse{}, fmt.Errorf("%w: %w", ErrEngineUnavailable, ctxErr)
		}
		lastErr = err
		h.gw.logger.Warn("engine request failed",
			zap.String("handle", h.id),
			zap.Int("attempt", attempt),
			zap.Int("depth", req.Limits.Depth),
			zap.Error(err),
		)
	}
	return uci.SearchResponse{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, lastErr)
}

func (h *Handle) attempt(ctx context.Context, req uci.SearchRequest, check func(uci.SearchResponse) error) (uci.SearchResponse, error) {
	if h.gw.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.gw.timeout)
		defer cancel()
	}
	proc, err := h.gw.source.Acquire(ctx)
	if err != nil {
		return uci.SearchResponse{}, err
	}
	var releaseErr error
	defer func() {
		h.gw.source.Release(proc, releaseErr)
	}()

	resp, err := proc.Search(ctx, req)
	if err != nil {
		releaseErr = err
		return uci.SearchResponse{}, err
	}
	if err := check(resp); err != nil {
		releaseErr = err
		return uci.SearchResponse{}, err
	}
	return resp, nil
}

type poolSource struct {
	pool *uci.Pool
}

func (s poolSource) Acquire(ctx context.Context) (Process, error) {
	sess, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s poolSource) Release(p Process, err error) {
	sess, ok := p.(*uci.Session)
	if !ok {
		return
	}
	s.pool.Release(sess, err)
}

func (s poolSource) Close() error {
	return s.pool.Close()
}
