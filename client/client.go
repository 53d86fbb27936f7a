// Package client is the Go client for the refqa chat service.
//
// A Client owns exactly one live websocket connection per authenticated
// session and the message sequence of the single active room. All mutations
// of that sequence happen on server confirmation: sending a message never
// appends locally, deleting never removes locally; both become visible only
// through the corresponding broadcast.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"refqa-chat/notify"
)

// MaxMessageRunes bounds the length of an outbound message body.
const MaxMessageRunes = 500

var (
	// ErrNotConnected is returned when an operation needs a live connection.
	ErrNotConnected = errors.New("not connected")
	// ErrEmptyMessage is returned for bodies that are empty after trimming.
	ErrEmptyMessage = errors.New("empty message")
	// ErrMessageTooLong is returned for bodies above MaxMessageRunes.
	ErrMessageTooLong = errors.New("message too long")
	// ErrNotAuthorized is returned for moderation attempts without the admin role.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNoActiveRoom is returned when sending without having joined a room.
	ErrNoActiveRoom = errors.New("no active room")
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// Config configures a Client.
type Config struct {
	// BaseURL is the http(s) root of the chat service.
	BaseURL string
	// Identity is the authenticated user; supplied by the session store.
	Identity Identity
	// Token is the bearer credential carried in the handshake.
	Token string
	// Bus receives user-facing notifications. Required.
	Bus *notify.Bus
	// OnUpdate, when set, is invoked with a snapshot of the active room's
	// sequence whenever it changes.
	OnUpdate func([]Message)
	// HTTPClient overrides the client used for one-shot requests.
	HTTPClient *http.Client
}

// Client manages the live connection and the active room session.
type Client struct {
	baseURL  string
	wsURL    string
	identity Identity
	token    string
	bus      *notify.Bus
	onUpdate func([]Message)
	httpc    *http.Client

	writeMu sync.Mutex // serializes websocket writes

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	session roomSession
}

// roomSession is the state of the active room. Owned by Client.mu.
type roomSession struct {
	room           int
	epoch          uint64
	loading        bool
	historyPending bool
	pending        []Message // live events buffered until history resolves
	messages       []Message
}

// New builds a Client. It does not connect; call Dial.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: base url required")
	}
	if cfg.Bus == nil {
		return nil, errors.New("client: notification bus required")
	}
	wsURL, err := deriveWSURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		wsURL:    wsURL,
		identity: cfg.Identity,
		token:    cfg.Token,
		bus:      cfg.Bus,
		onUpdate: cfg.OnUpdate,
		httpc:    httpc,
	}, nil
}

func deriveWSURL(baseURL string) (string, error) {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimRight(strings.TrimPrefix(baseURL, "https://"), "/") + "/ws", nil
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimRight(strings.TrimPrefix(baseURL, "http://"), "/") + "/ws", nil
	default:
		return "", fmt.Errorf("client: unsupported base url %q", baseURL)
	}
}

// Dial establishes the live connection, tearing down a previous one first
// so a session never holds two connections.
func (c *Client) Dial(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL+"?token="+c.token, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("dial chat service: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Connected reports whether the live connection is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// Close tears down the connection and the room session. Live-event
// delivery stops; no callbacks fire after teardown of the read loop.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.session = roomSession{epoch: c.session.epoch + 1}
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// readLoop delivers inbound events for the connection it was started with.
// A newer connection makes it exit silently on the old conn's read error.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.state = StateDisconnected
			}
			c.mu.Unlock()
			return
		}
		c.dispatch(env)
	}
}

func (c *Client) emit(event string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeEnvelope(conn, event, payload)
}
