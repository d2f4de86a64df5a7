package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"poser-sync/internal/collab"
	"poser-sync/internal/relay"
)

// Client is a collab.Transport and collab.Presence backed by a relay
// websocket connection.
type Client struct {
	id   uuid.UUID
	conn *websocket.Conn
	log  zerolog.Logger

	wmu     sync.Mutex
	encoder *json.Encoder

	mu     sync.RWMutex
	online map[uuid.UUID]bool
	closed bool

	inbox chan collab.Envelope
	done  chan struct{}
}

// Dial connects to the relay at relayURL (http, https, ws or wss) as id.
func Dial(ctx context.Context, relayURL string, id uuid.UUID, log zerolog.Logger) (*Client, error) {
	wsURL, origin, err := endpoint(relayURL, id)
	if err != nil {
		return nil, err
	}
	cfg, err := websocket.NewConfig(wsURL, origin)
	if err != nil {
		return nil, fmt.Errorf("transport: config %s: %w", relayURL, err)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", relayURL, err)
	}

	c := &Client{
		id:      id,
		conn:    conn,
		log:     log,
		encoder: json.NewEncoder(conn),
		online:  make(map[uuid.UUID]bool),
		inbox:   make(chan collab.Envelope, inboxSize),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// endpoint builds the websocket URL and origin for a relay base URL.
func endpoint(relayURL string, id uuid.UUID) (string, string, error) {
	u, err := url.Parse(strings.TrimRight(relayURL, "/"))
	if err != nil {
		return "", "", fmt.Errorf("transport: parse %s: %w", relayURL, err)
	}
	origin := *u
	switch u.Scheme {
	case "http", "ws":
		u.Scheme, origin.Scheme = "ws", "http"
	case "https", "wss":
		u.Scheme, origin.Scheme = "wss", "https"
	default:
		return "", "", fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"id": {id.String()}}.Encode()
	origin.Path, origin.RawQuery = "", ""
	return u.String(), origin.String(), nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.inbox)
	decoder := json.NewDecoder(c.conn)
	for {
		var f relay.Frame
		if err := decoder.Decode(&f); err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Debug().Err(err).Msg("relay read ended")
			}
			return
		}
		switch f.Type {
		case relay.FrameMessage:
			select {
			case c.inbox <- collab.Envelope{From: f.From, To: c.id, Payload: f.Payload}:
			default:
				c.log.Warn().Str("from", f.From.String()).Msg("inbox full, dropping payload")
			}
		case relay.FramePresence:
			online := make(map[uuid.UUID]bool, len(f.Online))
			for _, id := range f.Online {
				online[id] = true
			}
			c.mu.Lock()
			c.online = online
			c.mu.Unlock()
		case relay.FrameError:
			c.log.Debug().Str("to", f.To.String()).Str("error", f.Error).Msg("relay error")
		}
	}
}

// Send forwards payload to the relay for delivery to to.
func (c *Client) Send(ctx context.Context, to uuid.UUID, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.encoder.Encode(relay.Frame{Type: relay.FrameMessage, To: to, Payload: payload}); err != nil {
		return fmt.Errorf("transport: send to %s: %w", to, err)
	}
	return nil
}

func (c *Client) Inbox() <-chan collab.Envelope { return c.inbox }

// Online reports whether the relay last listed id as connected.
func (c *Client) Online(id uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online[id]
}

// Close disconnects and waits for the reader to finish.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}
