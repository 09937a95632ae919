package v1

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	eventWriteTimeout = 5 * time.Second
	eventPingInterval = 30 * time.Second
)

// StreamEvents upgrades to a WebSocket and forwards the session's events as
// JSON until the session ends or the client goes away.
// GET /session/:id/events
func (h *Handler) StreamEvents(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.sessions.Get(id); err != nil {
		return h.fail(c, err)
	}

	sub := h.hub.Subscribe(id)
	defer sub.Close()

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		// Accept has already written the failure response
		h.logger.Debug("websocket accept failed", zap.String("session_id", id), zap.Error(err))
		return nil
	}
	defer conn.CloseNow()

	// clients only listen; CloseRead handles their control frames
	ctx := conn.CloseRead(c.Request().Context())
	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return nil
			}
		case ev, ok := <-sub.C():
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "subscription closed")
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				h.logger.Debug("event write failed", zap.String("session_id", id), zap.Error(err))
				return nil
			}
			if ev.Terminal() {
				_ = conn.Close(websocket.StatusNormalClosure, string(ev.Type))
				return nil
			}
		}
	}
}
