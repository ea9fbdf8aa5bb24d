// Package conversation owns the lifecycle of one open conversation view:
// history fetch, realtime attachment, merge of arrivals, and read-marking.
// Each view constructs its own connection manager and releases it on Close,
// so nothing socket-shaped outlives the conversation that opened it.
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pushkargithub0611/comm-module-goa/internal/api"
	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
	"github.com/pushkargithub0611/comm-module-goa/internal/log"
	"github.com/pushkargithub0611/comm-module-goa/internal/realtime"
)

const (
	defaultHistoryLimit = 50
	markReadTimeout     = 10 * time.Second
)

// Options configures Open.
type Options struct {
	API            *api.Client
	UserID         string
	GroupID        string
	WSURL          string
	ReconnectDelay time.Duration
	// HistoryLimit caps the initial fetch. Zero means 50.
	HistoryLimit int
	Logger       *zerolog.Logger
	// OnMessage fires for every message newly merged into the view,
	// whether it arrived over the wire or came back from a send.
	OnMessage func(chat.Message)
	// OnConnectionChange mirrors the transport's open/close transitions.
	OnConnectionChange func(connected bool)
}

// Conversation is one open conversation: its ordered message list plus the
// realtime channel feeding it.
type Conversation struct {
	api      *api.Client
	store    *chat.Store
	conn     *realtime.Conn
	log      *zerolog.Logger
	userID   string
	groupID  string
	degraded bool

	onMessage func(chat.Message)
	unsubMsg  func()
	unsubConn func()
	closeOnce sync.Once
}

// Open fetches the conversation's history, replaces the view with it, and
// attaches the realtime channel for (user, group). The caller must Close the
// returned conversation when leaving the view.
func Open(ctx context.Context, opts Options) (*Conversation, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	history, err := opts.API.FetchMessages(ctx, opts.GroupID, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("load history for group %s: %w", opts.GroupID, err)
	}

	store := chat.NewStore(opts.GroupID)
	store.Replace(history.Messages)

	c := &Conversation{
		api:       opts.API,
		store:     store,
		log:       logger,
		userID:    opts.UserID,
		groupID:   opts.GroupID,
		degraded:  history.Degraded,
		onMessage: opts.OnMessage,
	}

	c.conn = realtime.New(realtime.Options{
		URL:            opts.WSURL,
		ReconnectDelay: opts.ReconnectDelay,
		Logger:         logger,
	})
	c.unsubMsg = c.conn.OnMessage(c.handleArrival)
	if opts.OnConnectionChange != nil {
		c.unsubConn = c.conn.OnConnectionChange(opts.OnConnectionChange)
	}
	c.conn.Connect(opts.UserID, opts.GroupID)

	return c, nil
}

// handleArrival merges one realtime delivery. Duplicates (the REST send
// response racing its websocket echo) and messages for other conversations
// fall out of Merge as no-ops; only genuinely new messages get read-marked.
func (c *Conversation) handleArrival(m chat.Message) {
	if !c.store.Merge(m) {
		return
	}
	go c.markRead(m.ID)
	if c.onMessage != nil {
		c.onMessage(m)
	}
}

// markRead is fire-and-forget: a failure is logged, never retried, and never
// holds up display.
func (c *Conversation) markRead(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), markReadTimeout)
	defer cancel()

	if err := c.api.MarkMessageRead(ctx, messageID); err != nil {
		c.log.Warn().Err(err).Str("message_id", messageID).Msg("mark message read failed")
	}
}

// Send persists the message through the REST API, merges the response
// locally, and echoes it over the realtime channel so other connected
// viewers see it without waiting on their own fetch.
func (c *Conversation) Send(ctx context.Context, content string) (chat.Message, error) {
	msg, err := c.api.SendMessage(ctx, content, c.groupID)
	if err != nil {
		return chat.Message{}, err
	}

	if c.store.Merge(msg) && c.onMessage != nil {
		c.onMessage(msg)
	}
	c.conn.SendMessage(content, c.groupID, c.userID)
	return msg, nil
}

// Messages returns the current ordered list.
func (c *Conversation) Messages() []chat.Message {
	return c.store.Messages()
}

// Degraded reports whether the history came from the demo dataset.
func (c *Conversation) Degraded() bool {
	return c.degraded
}

// IsConnected reports realtime transport readiness.
func (c *Conversation) IsConnected() bool {
	return c.conn.IsConnected()
}

// GroupID returns the conversation this view is scoped to.
func (c *Conversation) GroupID() string {
	return c.groupID
}

// Close detaches the subscriptions and releases the socket. Idempotent.
func (c *Conversation) Close() {
	c.closeOnce.Do(func() {
		if c.unsubMsg != nil {
			c.unsubMsg()
		}
		if c.unsubConn != nil {
			c.unsubConn()
		}
		c.conn.Disconnect()
	})
}
