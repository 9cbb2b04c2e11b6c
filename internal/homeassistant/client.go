// Package homeassistant talks to Home Assistant through the Supervisor: the
// core WebSocket API for service calls and device lookups, and the
// Supervisor REST API for the add-on slug used in ingress links.
package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrAuthInvalid means the Supervisor token was rejected. Not retried.
	ErrAuthInvalid = errors.New("homeassistant: authentication failed")
	// ErrNotConnected is returned by calls made after the connection dropped.
	ErrNotConnected = errors.New("homeassistant: not connected")

	errClosed = errors.New("homeassistant: client closed")
)

// Config holds the connection settings.
type Config struct {
	WebSocketURL   string
	AddonInfoURL   string
	Token          string
	MaxRetry       int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

// Client is an authenticated Home Assistant WebSocket connection. It is safe
// for concurrent use. Once the connection drops, Done is closed and every
// call fails with ErrNotConnected.
type Client struct {
	cfg  Config
	log  zerolog.Logger
	conn *websocket.Conn
	slug string

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan serverMessage
	err     error

	done   chan struct{}
	cancel context.CancelFunc
}

// Connect dials, authenticates and fetches the add-on slug, retrying up to
// cfg.MaxRetry times with cfg.RetryDelay between attempts.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	lg := log.With().Str("component", "homeassistant").Logger()

	for attempt := 0; ; attempt++ {
		lg.Info().Str("url", cfg.WebSocketURL).Int("attempt", attempt+1).Msg("connecting to Home Assistant")
		c, err := connect(ctx, cfg, lg)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, ErrAuthInvalid) {
			return nil, err
		}
		lg.Error().Err(err).Msg("failed to connect to Home Assistant")
		if attempt >= cfg.MaxRetry {
			return nil, fmt.Errorf("homeassistant: giving up after %d attempts: %w", attempt+1, err)
		}
		lg.Info().Dur("delay", cfg.RetryDelay).Msg("retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
}

func connect(ctx context.Context, cfg Config, lg zerolog.Logger) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, cfg.WebSocketURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	// Device registry listings easily exceed the default 32 KiB read limit.
	conn.SetReadLimit(8 << 20)

	if err := authenticate(dialCtx, conn, cfg.Token, lg); err != nil {
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return nil, err
	}

	slug, err := fetchAddonSlug(dialCtx, cfg.HTTPClient, cfg.AddonInfoURL, cfg.Token)
	if err != nil {
		conn.Close(websocket.StatusNormalClosure, "")
		return nil, err
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:     cfg,
		log:     lg,
		conn:    conn,
		slug:    slug,
		nextID:  1,
		pending: make(map[int64]chan serverMessage),
		done:    make(chan struct{}),
		cancel:  loopCancel,
	}
	go c.readLoop(loopCtx)
	lg.Info().Str("addon_slug", slug).Msg("connected to Home Assistant")
	return c, nil
}

func authenticate(ctx context.Context, conn *websocket.Conn, token string, lg zerolog.Logger) error {
	for {
		msg, err := readMessage(ctx, conn)
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
		switch msg.Type {
		case typeAuthRequired:
			data, _ := json.Marshal(authMessage{Type: typeAuth, AccessToken: token})
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return fmt.Errorf("send auth: %w", err)
			}
		case typeAuthOK:
			lg.Info().Str("ha_version", msg.HAVersion).Msg("authentication succeeded")
			return nil
		case typeAuthInvalid:
			return fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
		default:
			lg.Warn().Str("type", msg.Type).Msg("unexpected message during handshake")
		}
	}
}

func readMessage(ctx context.Context, conn *websocket.Conn) (serverMessage, error) {
	var msg serverMessage
	typ, data, err := conn.Read(ctx)
	if err != nil {
		return msg, err
	}
	if typ != websocket.MessageText {
		return msg, errors.New("binary message received")
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			c.fail(err)
			return
		}
		if typ != websocket.MessageText {
			c.log.Error().Msg("binary message received")
			continue
		}
		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Error().Err(err).Msg("undecodable message")
			continue
		}
		c.log.Debug().RawJSON("message", data).Msg("received message")

		switch msg.Type {
		case typeResult, typePong:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.mu.Unlock()
			if !ok {
				c.log.Warn().Int64("id", msg.ID).Msg("result for unknown request")
				continue
			}
			ch <- msg
		default:
			c.log.Error().Str("type", msg.Type).Msg("unknown message type")
		}
	}
}

// fail records the terminal error, unblocks waiting callers and closes Done.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	c.err = err
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	close(c.done)
	if err != errClosed {
		c.log.Error().Err(err).Msg("connection to Home Assistant lost")
	}
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, or nil while it is alive. After
// Close it reports a closed-client error.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.fail(errClosed)
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.cancel()
	return err
}

// Call sends a command and waits for its result. fields must not contain
// "id"; "type" is set from typ.
func (c *Client) Call(ctx context.Context, typ string, fields map[string]any) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	ch := make(chan serverMessage, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	id := c.nextID
	c.nextID++
	c.pending[id] = ch
	c.mu.Unlock()

	cmd := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		cmd[k] = v
	}
	cmd["id"] = id
	cmd["type"] = typ
	data, err := json.Marshal(cmd)
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}

	c.log.Debug().RawJSON("message", data).Msg("send message")
	c.writeMu.Lock()
	err = c.conn.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("send %s: %w", typ, err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrNotConnected
		}
		if msg.Type == typeResult && !msg.Success {
			if msg.Error == nil {
				return nil, &CommandError{Code: "unknown_error", Message: typ + " failed"}
			}
			c.log.Error().Str("code", msg.Error.Code).Msg(msg.Error.Message)
			return nil, msg.Error
		}
		return msg.Result, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Ping checks the connection end to end.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, typePing, nil)
	return err
}

// CallService calls domain.service with the given service data.
func (c *Client) CallService(ctx context.Context, domain, service string, data any) error {
	fields := map[string]any{"domain": domain, "service": service}
	if data != nil {
		fields["service_data"] = data
	}
	_, err := c.Call(ctx, typeCallService, fields)
	return err
}

// Devices lists the device registry.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	raw, err := c.Call(ctx, typeDeviceList, nil)
	if err != nil {
		return nil, err
	}
	var out []Device
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	return out, nil
}

// MobileAppDevices lists devices registered by the companion app.
func (c *Client) MobileAppDevices(ctx context.Context) ([]Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	out := devices[:0]
	for _, d := range devices {
		if d.IsMobileApp() {
			out = append(out, d)
		}
	}
	return out, nil
}

// AddonURL is the ingress path of the add-on inside Home Assistant.
func (c *Client) AddonURL() string { return "/" + c.slug + "/ingress" }

// NotifyService returns the notify service name for a companion-app device.
func NotifyService(device string) string {
	return "mobile_app_" + strings.ReplaceAll(strings.ToLower(device), " ", "_")
}

// SendNotification pushes a notification to device; tapping it opens the
// add-on.
func (c *Client) SendNotification(ctx context.Context, device, title, message string) error {
	url := c.AddonURL()
	return c.notify(ctx, device, Notification{
		Title:   title,
		Message: message,
		Data:    clickData{URL: url, ClickAction: url},
	})
}

// OpenAppOnDevice makes the companion app on device open the add-on.
func (c *Client) OpenAppOnDevice(ctx context.Context, device string) error {
	return c.notify(ctx, device, Notification{
		Message: "command_webview",
		Data:    webviewData{Command: c.AddonURL()},
	})
}

func (c *Client) notify(ctx context.Context, device string, n Notification) error {
	return c.CallService(ctx, "notify", NotifyService(device), n)
}

// PlayMedia plays an mp3 url on a media_player entity.
func (c *Client) PlayMedia(ctx context.Context, url, entityID string) error {
	return c.CallService(ctx, "media_player", "play_media", map[string]string{
		"media_content_id":   url,
		"media_content_type": "audio/mp3",
		"entity_id":          entityID,
	})
}
