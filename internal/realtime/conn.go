package realtime

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
	"github.com/pushkargithub0611/comm-module-goa/internal/log"
	"github.com/pushkargithub0611/comm-module-goa/internal/proto"
)

const defaultReconnectDelay = 5 * time.Second

// MessageHandler receives every inbound message delivery.
type MessageHandler func(chat.Message)

// ConnectionHandler receives open/close transitions.
type ConnectionHandler func(connected bool)

// Options configures a Conn.
type Options struct {
	// URL is the realtime endpoint, e.g. ws://host/ws. userId and roomId
	// are appended as query parameters on connect.
	URL string
	// ReconnectDelay overrides the fixed delay before the single reconnect
	// attempt after an unexpected close. Zero means 5 seconds.
	ReconnectDelay time.Duration
	Logger         *zerolog.Logger
}

// Conn maintains one live channel to the realtime backend for a single
// (user, conversation) pair. Opening a new connection tears down any prior
// one first; at most one reconnect timer is ever pending.
type Conn struct {
	url   string
	delay time.Duration
	log   *zerolog.Logger

	mu        sync.Mutex
	ws        *websocket.Conn
	connected bool
	gen       int // socket generation; bumping it orphans older read loops
	reconnect *time.Timer
	userID    string
	groupID   string

	handlerMu    sync.Mutex
	nextHandler  int
	msgHandlers  map[int]MessageHandler
	connHandlers map[int]ConnectionHandler
}

// New constructs a disconnected Conn.
func New(opts Options) *Conn {
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Conn{
		url:          opts.URL,
		delay:        delay,
		log:          logger,
		msgHandlers:  make(map[int]MessageHandler),
		connHandlers: make(map[int]ConnectionHandler),
	}
}

// Connect tears down any existing connection and opens a new one addressed
// by the user and, if non-empty, the conversation. Establishment is
// asynchronous; observe it via OnConnectionChange.
func (c *Conn) Connect(userID, groupID string) {
	c.mu.Lock()
	wasConnected := c.teardownLocked()
	c.userID = userID
	c.groupID = groupID
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	if wasConnected {
		c.notifyConnection(false)
	}
	go c.dial(gen, userID, groupID)
}

// Disconnect closes the active connection cleanly and cancels any pending
// reconnect. Safe to call with no active connection.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	wasConnected := c.teardownLocked()
	c.mu.Unlock()

	if wasConnected {
		c.notifyConnection(false)
	}
}

// SendMessage transmits a best-effort realtime echo of an already-persisted
// message. When no connection is open it logs and returns; the REST path is
// the authoritative send.
func (c *Conn) SendMessage(content, groupID, senderID string) {
	c.mu.Lock()
	ws := c.ws
	connected := c.connected
	c.mu.Unlock()

	if ws == nil || !connected {
		c.log.Error().Msg("websocket not connected, dropping outbound message")
		return
	}

	frame, err := proto.EncodeSend(content, groupID, senderID)
	if err != nil {
		c.log.Error().Err(err).Msg("encode send_message frame")
		return
	}
	if err := ws.Write(context.Background(), websocket.MessageText, frame); err != nil {
		c.log.Error().Err(err).Msg("write send_message frame")
	}
}

// OnMessage registers a handler for inbound deliveries and returns its
// unsubscribe capability. Removing one handler leaves the others untouched.
func (c *Conn) OnMessage(h MessageHandler) func() {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	id := c.nextHandler
	c.nextHandler++
	c.msgHandlers[id] = h
	return func() {
		c.handlerMu.Lock()
		defer c.handlerMu.Unlock()
		delete(c.msgHandlers, id)
	}
}

// OnConnectionChange registers a handler invoked with a boolean on every
// open/close transition and returns its unsubscribe capability.
func (c *Conn) OnConnectionChange(h ConnectionHandler) func() {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	id := c.nextHandler
	c.nextHandler++
	c.connHandlers[id] = h
	return func() {
		c.handlerMu.Lock()
		defer c.handlerMu.Unlock()
		delete(c.connHandlers, id)
	}
}

// IsConnected reports current transport readiness.
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// teardownLocked cancels the pending reconnect timer and closes the live
// socket, if any. Callers hold c.mu and are responsible for notifying the
// close transition when wasConnected is true.
func (c *Conn) teardownLocked() (wasConnected bool) {
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	// Bump the generation even with no live socket: an unexpected close may
	// have been observed but its reconnect not armed yet, and that arm must
	// see this teardown.
	c.gen++
	if c.ws != nil {
		_ = c.ws.Close(websocket.StatusNormalClosure, "client closing")
		c.ws = nil
	}
	wasConnected = c.connected
	c.connected = false
	return wasConnected
}

func (c *Conn) dial(gen int, userID, groupID string) {
	addr := c.dialURL(userID, groupID)
	ws, _, err := websocket.Dial(context.Background(), addr, nil)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if err == nil {
			_ = ws.Close(websocket.StatusNormalClosure, "superseded")
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("url", addr).Msg("websocket dial failed")
		c.notifyConnection(false)
		c.scheduleReconnect(gen)
		return
	}

	c.ws = ws
	c.connected = true
	c.mu.Unlock()

	c.log.Debug().Str("url", addr).Msg("websocket connection established")
	c.notifyConnection(true)
	go c.readLoop(gen, ws)
}

func (c *Conn) readLoop(gen int, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(context.Background())
		if err != nil {
			c.handleClose(gen, err)
			return
		}

		msg, ok, decErr := proto.DecodeDelivery(data)
		if decErr != nil {
			c.log.Warn().Err(decErr).Msg("dropping malformed frame")
			continue
		}
		if !ok {
			continue
		}
		c.notifyMessage(msg)
	}
}

// handleClose runs when the read loop dies. Deliberate teardowns bump the
// generation first, so only unexpected closures reach the reconnect path.
func (c *Conn) handleClose(gen int, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.connected = false
	c.mu.Unlock()

	status := websocket.CloseStatus(err)
	c.log.Warn().Err(err).Int("status", int(status)).Msg("websocket connection closed")
	c.notifyConnection(false)

	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		return
	}
	c.scheduleReconnect(gen)
}

// scheduleReconnect arms the single fixed-delay retry for the last known
// (user, conversation) pair. A deliberate disconnect or a fresh Connect
// cancels it before it fires.
func (c *Conn) scheduleReconnect(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.reconnect != nil {
		return
	}
	c.reconnect = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.reconnect = nil
		if gen != c.gen {
			// a Connect or Disconnect won the race against the timer
			c.mu.Unlock()
			return
		}
		userID, groupID := c.userID, c.groupID
		c.mu.Unlock()

		if userID == "" {
			return
		}
		c.log.Info().Str("user_id", userID).Str("room_id", groupID).Msg("attempting websocket reconnect")
		c.Connect(userID, groupID)
	})
}

func (c *Conn) dialURL(userID, groupID string) string {
	u, err := url.Parse(c.url)
	if err != nil {
		return c.url
	}
	q := u.Query()
	q.Set("userId", userID)
	if groupID != "" {
		q.Set("roomId", groupID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Conn) notifyMessage(m chat.Message) {
	for _, h := range snapshotHandlers(c, c.msgHandlers) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error().Interface("panic", r).Msg("message handler panicked")
				}
			}()
			h(m)
		}()
	}
}

func (c *Conn) notifyConnection(connected bool) {
	for _, h := range snapshotHandlers(c, c.connHandlers) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error().Interface("panic", r).Msg("connection handler panicked")
				}
			}()
			h(connected)
		}()
	}
}

// snapshotHandlers copies the registered handlers in registration order so
// dispatch never runs under the registry lock.
func snapshotHandlers[H any](c *Conn, reg map[int]H) []H {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	ids := make([]int, 0, len(reg))
	for id := range reg {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]H, 0, len(ids))
	for _, id := range ids {
		out = append(out, reg[id])
	}
	return out
}
