package session

import (
	"errors"
	"fmt"

	"github.com/park285/adaptive-chess/internal/chess"
)

var (
	ErrInvalidMove       = errors.New("invalid move")
	ErrInvalidDepth      = errors.New("invalid depth")
	ErrNotFound          = errors.New("session not found")
	ErrWrongTurn         = errors.New("not the expected turn")
	ErrGameOver          = errors.New("game is over")
	ErrSessionExists     = errors.New("session already exists")
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrEngineFatal       = errors.New("engine cannot be started")
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindEngineUnavailable
	KindEngineFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindEngineUnavailable:
		return "engine_unavailable"
	case KindEngineFatal:
		return "engine_fatal"
	default:
		return "internal"
	}
}

// Kind classifies err into the taxonomy callers map onto their transport.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidMove), errors.Is(err, ErrInvalidDepth):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrWrongTurn), errors.Is(err, ErrGameOver), errors.Is(err, ErrSessionExists):
		return KindConflict
	case errors.Is(err, ErrEngineFatal):
		return KindEngineFatal
	case errors.Is(err, ErrEngineUnavailable):
		return KindEngineUnavailable
	default:
		return KindInternal
	}
}

func mapEngineError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, chess.ErrEngineFatal) {
		return fmt.Errorf("%w: %v", ErrEngineFatal, err)
	}
	return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
}
