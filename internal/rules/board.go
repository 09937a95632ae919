package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

type boardRules struct{}

// New returns Rules backed by github.com/corentings/chess.
func New() Rules { return boardRules{} }

func (boardRules) Start() Position {
	return &boardPosition{game: nchess.NewGame()}
}

func (boardRules) Parse(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return &boardPosition{game: nchess.NewGame()}, nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return &boardPosition{game: nchess.NewGame(opt)}, nil
}

type boardPosition struct {
	game *nchess.Game
}

func (p *boardPosition) FEN() string { return p.game.FEN() }

func (p *boardPosition) SideToMove() Color {
	if p.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

func (p *boardPosition) Validate(move string) (string, error) {
	mv, err := NormalizeMove(move)
	if err != nil {
		return "", err
	}
	if p.Outcome().Terminal() {
		return "", fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	if _, ok := p.decode(mv); !ok {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, mv)
	}
	return mv, nil
}

func (p *boardPosition) Apply(move string) (Position, error) {
	normalized, err := p.Validate(move)
	if err != nil {
		return nil, err
	}
	mv, _ := p.decode(normalized)
	next := p.game.Clone()
	if err := next.Move(mv, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	return &boardPosition{game: next}, nil
}

func (p *boardPosition) LegalMoves() []string {
	if p.Outcome().Terminal() {
		return nil
	}
	valid := p.game.Position().ValidMoves()
	out := make([]string, 0, len(valid))
	for _, mv := range valid {
		out = append(out, mv.String())
	}
	return out
}

func (p *boardPosition) SAN(move string) string {
	mv, ok := p.decode(strings.ToLower(strings.TrimSpace(move)))
	if !ok {
		return move
	}
	return nchess.AlgebraicNotation{}.Encode(p.game.Position(), mv)
}

func (p *boardPosition) Outcome() Outcome {
	var res Result
	switch p.game.Outcome() {
	case nchess.WhiteWon:
		res = WhiteWon
	case nchess.BlackWon:
		res = BlackWon
	case nchess.Draw:
		res = Draw
	default:
		return Outcome{Result: Ongoing}
	}
	return Outcome{Result: res, Method: strings.ToLower(p.game.Method().String())}
}

func (p *boardPosition) Ply() int { return len(p.game.Moves()) }

// decode resolves a normalized UCI string against the legal moves of the
// current position.
func (p *boardPosition) decode(mv string) (*nchess.Move, bool) {
	pos := p.game.Position()
	decoded, err := nchess.UCINotation{}.Decode(pos, mv)
	if err != nil || decoded == nil {
		return nil, false
	}
	for _, legal := range pos.ValidMoves() {
		if legal.String() == mv {
			return decoded, true
		}
	}
	return nil, false
}
