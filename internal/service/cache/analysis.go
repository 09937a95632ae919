package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/adaptive-chess/internal/chess"
)

const DefaultAnalysisTTL = 24 * time.Hour

// AnalysisStore memoizes engine analyses by position, depth and line count.
// Errors degrade to a miss; the engine remains the source of truth.
type AnalysisStore struct {
	svc    *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

func NewAnalysisStore(svc *CacheService, ttl time.Duration) *AnalysisStore {
	if ttl <= 0 {
		ttl = DefaultAnalysisTTL
	}
	return &AnalysisStore{svc: svc, ttl: ttl, logger: svc.logger}
}

func analysisKey(fen string, depth, count int) string {
	return fmt.Sprintf("analysis:%s|%d|%d", fen, depth, count)
}

func (a *AnalysisStore) Lookup(ctx context.Context, fen string, depth, count int) ([]chess.Line, bool) {
	var lines []chess.Line
	found, err := a.svc.Get(ctx, analysisKey(fen, depth, count), &lines)
	if err != nil {
		a.logger.Warn("analysis cache read failed", zap.String("fen", fen), zap.Error(err))
		return nil, false
	}
	if !found || len(lines) == 0 {
		return nil, false
	}
	return lines, true
}

func (a *AnalysisStore) Store(ctx context.Context, fen string, depth, count int, lines []chess.Line) {
	if len(lines) == 0 {
		return
	}
	if err := a.svc.Set(ctx, analysisKey(fen, depth, count), lines, a.ttl); err != nil {
		a.logger.Warn("analysis cache write failed", zap.String("fen", fen), zap.Error(err))
	}
}
