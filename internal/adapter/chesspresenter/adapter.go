package chesspresenter

import (
	"github.com/park285/adaptive-chess/internal/domain"
	"github.com/park285/adaptive-chess/internal/service/session"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

func ToSessionView(v *session.View) *chessdto.SessionView {
	if v == nil {
		return nil
	}
	out := &chessdto.SessionView{
		SessionID:   v.ID,
		FEN:         v.FEN,
		Turn:        v.SideToMove,
		Phase:       v.Phase.String(),
		Status:      v.Status,
		Depth:       v.Depth,
		Rating:      v.Rating,
		SampleCount: v.SampleCount,
		ACPL:        v.ACPL,
		Moves:       nonNil(v.Moves),
		MovesUCI:    nonNil(v.MovesUCI),
		CPLLosses:   nonNil(v.Losses),
		AvgLosses:   nonNil(v.RunningACPL),
		Result:      v.Result,
		Method:      v.Method,
		CreatedAt:   v.CreatedAt,
		LastAccess:  v.LastAccess,
	}
	for _, s := range v.Samples {
		out.Samples = append(out.Samples, chessdto.Sample{Ply: s.Ply, Move: s.Move, Loss: s.Loss, At: s.At})
	}
	return out
}

func ToMoveResponse(r *session.MoveResult) *chessdto.MoveResponse {
	if r == nil {
		return nil
	}
	out := &chessdto.MoveResponse{
		Session:  ToSessionView(r.View),
		Move:     r.Move,
		SAN:      r.SAN,
		BestMove: r.BestMove,
		GameOver: r.GameOver,
	}
	if r.Scored {
		loss := r.Loss
		out.Loss = &loss
	}
	return out
}

func ToBotMoveResponse(r *session.BotMoveResult) *chessdto.BotMoveResponse {
	if r == nil {
		return nil
	}
	return &chessdto.BotMoveResponse{
		Session:  ToSessionView(r.View),
		Move:     r.Move,
		SAN:      r.SAN,
		Depth:    r.Depth,
		GameOver: r.GameOver,
	}
}

func ToLegalMoves(id string, moves []session.LegalMove) *chessdto.LegalMoves {
	out := &chessdto.LegalMoves{SessionID: id, Moves: make([]chessdto.LegalMove, 0, len(moves))}
	for _, mv := range moves {
		out.Moves = append(out.Moves, chessdto.LegalMove{Move: mv.Move, SAN: mv.SAN})
	}
	return out
}

func ToHintResponse(id string, h *session.Hint) *chessdto.HintResponse {
	if h == nil {
		return nil
	}
	return &chessdto.HintResponse{SessionID: id, Move: h.Move, SAN: h.SAN, Eval: h.Eval, Mate: h.Mate, Depth: h.Depth}
}

func ToGameRecord(g *domain.GameRecord) *chessdto.GameRecord {
	if g == nil {
		return nil
	}
	return &chessdto.GameRecord{
		ID:          g.ID,
		SessionID:   g.SessionID,
		Result:      g.Result,
		Method:      g.Method,
		Reason:      g.Reason,
		MovesUCI:    nonNil(g.MovesUCI),
		MovesSAN:    nonNil(g.MovesSAN),
		Losses:      nonNil(g.Losses),
		FinalRating: g.FinalRating,
		FinalDepth:  g.FinalDepth,
		StartedAt:   g.StartedAt,
		EndedAt:     g.EndedAt,
		DurationMS:  g.Duration().Milliseconds(),
	}
}

// nonNil keeps empty lists as [] rather than null on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
