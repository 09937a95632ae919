package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/internal/service/session"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

// CreateSession starts a game.
// POST /session
func (h *Handler) CreateSession(c echo.Context) error {
	var req chessdto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	view, err := h.sessions.Create(c.Request().Context(), session.CreateRequest{
		ID:           req.SessionID,
		InitialDepth: req.Depth,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, chesspresenter.ToSessionView(view))
}

// ListSessions lists live sessions, oldest first.
// GET /sessions
func (h *Handler) ListSessions(c echo.Context) error {
	views := h.sessions.List()
	out := chessdto.SessionList{Sessions: make([]*chessdto.SessionView, 0, len(views))}
	for _, v := range views {
		out.Sessions = append(out.Sessions, chesspresenter.ToSessionView(v))
	}
	return c.JSON(http.StatusOK, out)
}

// GET /session/:id
func (h *Handler) GetSession(c echo.Context) error {
	view, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, chesspresenter.ToSessionView(view))
}

// SubmitMove plays the human move and reports its loss.
// POST /session/:id/move
func (h *Handler) SubmitMove(c echo.Context) error {
	var req chessdto.MoveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Move) == "" {
		return badRequest(c, "move is required")
	}

	res, err := h.sessions.SubmitMove(c.Request().Context(), c.Param("id"), req.Move)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, chesspresenter.ToMoveResponse(res))
}

// TriggerBotMove asks the engine to reply.
// POST /session/:id/bot
func (h *Handler) TriggerBotMove(c echo.Context) error {
	res, err := h.sessions.TriggerBotMove(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, chesspresenter.ToBotMoveResponse(res))
}

// GET /session/:id/legal
func (h *Handler) LegalMoves(c echo.Context) error {
	id := c.Param("id")
	moves, err := h.sessions.LegalMoves(id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, chesspresenter.ToLegalMoves(id, moves))
}

// Hint returns the engine's best move for the human without playing it.
// GET /session/:id/hint
func (h *Handler) Hint(c echo.Context) error {
	id := c.Param("id")
	hint, err := h.sessions.Hint(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, chesspresenter.ToHintResponse(id, hint))
}

// DELETE /session/:id
func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
