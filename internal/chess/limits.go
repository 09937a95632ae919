package chess

import (
	"errors"
	"fmt"

	"github.com/park285/adaptive-chess/internal/chess/uci"
)

// MaxSearchDepth bounds any depth handed to the engine, analysis included.
const MaxSearchDepth = 30

var ErrInvalidSearchDepth = errors.New("invalid search depth")

// SearchLimits translates a plain depth into engine limits.
func SearchLimits(depth int) (uci.Limits, error) {
	if depth < 1 || depth > MaxSearchDepth {
		return uci.Limits{}, fmt.Errorf("%w: %d", ErrInvalidSearchDepth, depth)
	}
	return uci.Limits{Depth: depth}, nil
}
