// Package v1 serves the session API over HTTP and WebSocket.
package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/park285/adaptive-chess/internal/archive"
	"github.com/park285/adaptive-chess/internal/domain"
	"github.com/park285/adaptive-chess/internal/events"
	"github.com/park285/adaptive-chess/internal/service/session"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

// Sessions is the slice of the session manager the handlers call.
type Sessions interface {
	Create(ctx context.Context, req session.CreateRequest) (*session.View, error)
	Get(id string) (*session.View, error)
	List() []*session.View
	SubmitMove(ctx context.Context, id, move string) (*session.MoveResult, error)
	TriggerBotMove(ctx context.Context, id string) (*session.BotMoveResult, error)
	LegalMoves(id string) ([]session.LegalMove, error)
	Hint(ctx context.Context, id string) (*session.Hint, error)
	Delete(ctx context.Context, id string) error
}

type Games interface {
	GetGame(ctx context.Context, id string) (*domain.GameRecord, error)
	RecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error)
}

type Subscriber interface {
	Subscribe(sessionID string) *events.Subscription
}

type Handler struct {
	sessions Sessions
	games    Games
	hub      Subscriber
	logger   *zap.Logger
}

func NewHandler(sessions Sessions, games Games, hub Subscriber, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, games: games, hub: hub, logger: logger}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/session", h.CreateSession)
	e.GET("/sessions", h.ListSessions)
	e.GET("/session/:id", h.GetSession)
	e.POST("/session/:id/move", h.SubmitMove)
	e.POST("/session/:id/bot", h.TriggerBotMove)
	e.GET("/session/:id/legal", h.LegalMoves)
	e.GET("/session/:id/hint", h.Hint)
	e.DELETE("/session/:id", h.DeleteSession)
	e.GET("/session/:id/events", h.StreamEvents)

	e.GET("/games", h.ListGames)
	e.GET("/games/:id", h.GetGame)

	e.GET("/health", h.Health)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// StatusFor maps a session error onto an HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, archive.ErrGameNotFound) {
		return http.StatusNotFound
	}
	switch session.Kind(err) {
	case session.KindValidation:
		return http.StatusBadRequest
	case session.KindNotFound:
		return http.StatusNotFound
	case session.KindConflict:
		return http.StatusConflict
	case session.KindEngineUnavailable, session.KindEngineFatal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	if errors.Is(err, archive.ErrGameNotFound) {
		return session.KindNotFound.String()
	}
	return session.Kind(err).String()
}

func (h *Handler) fail(c echo.Context, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return c.JSON(status, chessdto.ErrorResponse{Code: codeFor(err), Message: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, chessdto.ErrorResponse{Code: session.KindValidation.String(), Message: msg})
}
