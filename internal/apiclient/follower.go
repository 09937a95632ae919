package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/adaptive-chess/internal/events"
)

// EventsURL converts the API base URL into the session's event stream URL.
func EventsURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/session/" + url.PathEscape(sessionID) + "/events"
	return u.String(), nil
}

// Follow streams a session's events to fn until the server ends the stream
// or ctx is cancelled. A normal closure after a terminal event returns nil.
func Follow(ctx context.Context, baseURL, sessionID string, fn func(events.Event)) error {
	wsURL, err := EventsURL(baseURL, sessionID)
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, resp, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: status %d: %w", wsURL, resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.CloseNow()

	for {
		var ev events.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "bye")
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}
		fn(ev)
	}
}
