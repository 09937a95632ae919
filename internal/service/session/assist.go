package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type LegalMove struct {
	Move string
	SAN  string
}

// Hint is the engine's preferred move for the human at the analysis depth.
type Hint struct {
	Move  string
	SAN   string
	Eval  int
	Mate  int
	Depth int
}

// LegalMoves lists the moves open to the side to move. A finished game has
// none.
func (m *Manager) LegalMoves(id string) ([]LegalMove, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	pos := s.pos
	s.lastAccess = m.now()
	s.mu.Unlock()

	moves := pos.LegalMoves()
	out := make([]LegalMove, 0, len(moves))
	for _, mv := range moves {
		out = append(out, LegalMove{Move: mv, SAN: pos.SAN(mv)})
	}
	return out, nil
}

// Hint analyses the current position for the human. It never changes the
// session, and is only served on the human's turn.
func (m *Manager) Hint(ctx context.Context, id string) (*Hint, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if err := s.checkPhase(AwaitingHumanMove); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	pos := s.pos
	engine := s.engine
	s.lastAccess = m.now()
	s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, m.engineBudget(2))
	line, err := m.meter.Best(opCtx, engine, pos.FEN())
	cancel()
	if err != nil {
		m.logger.Warn("hint failed", zap.String("session_id", id), zap.Error(err))
		return nil, mapEngineError(err)
	}
	return &Hint{
		Move:  line.Move,
		SAN:   pos.SAN(line.Move),
		Eval:  line.Eval,
		Mate:  line.Mate,
		Depth: m.meter.Depth(),
	}, nil
}
