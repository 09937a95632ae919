package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

const maxGamesLimit = 200

// ListGames returns recently archived games, newest first.
// GET /games?limit=N
func (h *Handler) ListGames(c echo.Context) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = min(n, maxGamesLimit)
	}

	games, err := h.games.RecentGames(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	out := chessdto.GameList{Games: make([]*chessdto.GameRecord, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, chesspresenter.ToGameRecord(g))
	}
	return c.JSON(http.StatusOK, out)
}

// GET /games/:id
func (h *Handler) GetGame(c echo.Context) error {
	g, err := h.games.GetGame(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, chesspresenter.ToGameRecord(g))
}
