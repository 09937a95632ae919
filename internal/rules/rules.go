// Package rules hides the board representation behind a small capability
// interface: validate, apply, enumerate and detect the end of the game.
package rules

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrMalformedMove = errors.New("malformed move")
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidFEN    = errors.New("invalid fen")
)

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

type Result int

const (
	Ongoing Result = iota
	WhiteWon
	BlackWon
	Draw
)

func (r Result) String() string {
	switch r {
	case WhiteWon:
		return "1-0"
	case BlackWon:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

type Outcome struct {
	Result Result
	// Method is lower case, e.g. "checkmate", "stalemate".
	Method string
}

func (o Outcome) Terminal() bool { return o.Result != Ongoing }

type Rules interface {
	Start() Position
	Parse(fen string) (Position, error)
}

// Position is immutable; Apply returns a new value.
type Position interface {
	FEN() string
	SideToMove() Color
	Validate(move string) (string, error)
	Apply(move string) (Position, error)
	LegalMoves() []string
	SAN(move string) string
	Outcome() Outcome
	Ply() int
}

var moveGrammar = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// NormalizeMove lower-cases and trims text, then checks it against the
// coordinate move grammar.
func NormalizeMove(text string) (string, error) {
	mv := strings.ToLower(strings.TrimSpace(text))
	if !moveGrammar.MatchString(mv) {
		return "", ErrMalformedMove
	}
	return mv, nil
}
