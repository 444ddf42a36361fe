package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/autopeer-io/patrolctl/internal/console/model"
)

// TelemetryURL returns the WebSocket address of the live telemetry hub.
func (c *Client) TelemetryURL() string { return c.telemetryURL }

// StreamTelemetry connects to the live telemetry hub and calls fn for every
// update until ctx is done or the server closes the stream. The hub
// authenticates through the token query parameter, so a stored credential is
// required. Undecodable frames are skipped.
func (c *Client) StreamTelemetry(ctx context.Context, fn func(model.TelemetryUpdate)) error {
	const op = "stream_telemetry"

	token, err := c.token()
	if err != nil {
		return &RequestSetupError{Op: op, Message: "read credential", Err: err}
	}
	if token == "" {
		return &RequestSetupError{Op: op, Message: "not logged in"}
	}

	u, err := url.Parse(c.telemetryURL)
	if err != nil {
		return &RequestSetupError{Op: op, Message: "invalid telemetry url", Err: err}
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set(headerRequestID, uuid.NewString())

	// Redacted() only hides userinfo; keep the token out of logs and errors.
	safeURL := c.telemetryURL

	conn, err := c.dial(ctx, op, u.String(), safeURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.logger.Info("Connected to telemetry stream", "url", safeURL)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return &NetworkError{Op: op, URL: safeURL, Err: err}
		}

		var update model.TelemetryUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			c.logger.Warn("Skipping malformed telemetry frame", "error", err.Error())
			continue
		}
		if update.VehicleID == "" {
			c.logger.Debug("Skipping telemetry frame without vehicle id")
			continue
		}
		fn(update)
	}
}

// dial opens the WebSocket. A handshake rejected by the server is reported as
// *ServerError with the server's message.
func (c *Client) dial(ctx context.Context, op, rawURL, safeURL string, header http.Header) (conn *websocket.Conn, err error) {
	defer observe(op, time.Now(), &err)

	conn, resp, err := c.dialer.DialContext(ctx, rawURL, header)
	if err == nil {
		return conn, nil
	}
	if resp != nil {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
		return nil, &ServerError{Op: op, StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	}
	return nil, &NetworkError{Op: op, URL: safeURL, Err: err}
}
