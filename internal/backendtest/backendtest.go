// Package backendtest runs an in-process stand-in for the school ERP
// backend: the REST surface the client consumes plus the /ws realtime
// endpoint. Tests point real clients at it instead of mocking transports.
package backendtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
	"github.com/pushkargithub0611/comm-module-goa/internal/proto"
)

// Token is the bearer token the fixture hands out and accepts.
const Token = "backendtest-token"

// UserID identifies the fixture's authenticated user.
const UserID = "user-1"

type wsClient struct {
	conn   *websocket.Conn
	userID string
	roomID string
}

// Server is the fixture backend.
type Server struct {
	ts *httptest.Server

	mu             sync.Mutex
	groups         []chat.Group
	messages       map[string][]chat.Message
	profiles       []chat.Profile
	readMarks      []string
	members        map[string][]string
	clients        map[*wsClient]struct{}
	dials          int
	nextMessageID  int
	unauthorized   bool
	failAdminUsers bool
}

// New starts the fixture. It is shut down via t.Cleanup.
func New(t interface {
	Helper()
	Cleanup(func())
}) *Server {
	t.Helper()

	s := &Server{
		messages: make(map[string][]chat.Message),
		members:  make(map[string][]string),
		clients:  make(map[*wsClient]struct{}),
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()

	apiGroup := r.Group("/api", s.authMiddleware)
	apiGroup.POST("/auth/login", s.handleLogin)
	apiGroup.POST("/auth/register", s.handleLogin)
	apiGroup.GET("/groups", s.handleGroups)
	apiGroup.POST("/groups", s.handleCreateGroup)
	apiGroup.GET("/groups/:id", s.handleGroupDetails)
	apiGroup.GET("/groups/:id/messages", s.handleMessages)
	apiGroup.POST("/groups/:id/members", s.handleAddMember)
	apiGroup.DELETE("/groups/:id/members/:user_id", s.handleRemoveMember)
	apiGroup.POST("/messages", s.handleSendMessage)
	apiGroup.PUT("/messages/:id/read", s.handleMarkRead)
	apiGroup.GET("/messages/unread", s.handleUnread)
	apiGroup.GET("/admin/users", s.handleAdminUsers)
	apiGroup.GET("/users", s.handleUsers)
	apiGroup.POST("/users/profiles", s.handleProfiles)
	apiGroup.GET("/user/profile", s.handleCurrentUser)
	apiGroup.PUT("/user/profile", s.handleCurrentUser)

	r.GET("/ws", func(c *gin.Context) {
		s.handleWS(c.Writer, c.Request)
	})

	s.ts = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Close shuts the fixture down, dropping any live sockets first.
func (s *Server) Close() {
	s.mu.Lock()
	for c := range s.clients {
		_ = c.conn.CloseNow()
	}
	s.clients = make(map[*wsClient]struct{})
	s.mu.Unlock()

	s.ts.Close()
}

// APIURL returns the REST base URL including the /api prefix.
func (s *Server) APIURL() string {
	return s.ts.URL + "/api"
}

// WSURL returns the realtime endpoint URL.
func (s *Server) WSURL() string {
	return strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws"
}

// ForceUnauthorized makes every subsequent /api call answer 401.
func (s *Server) ForceUnauthorized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unauthorized = v
}

// FailAdminUsers makes GET /admin/users answer 403 so clients exercise the
// /users fallback.
func (s *Server) FailAdminUsers(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAdminUsers = v
}

// SeedGroup registers a group.
func (s *Server) SeedGroup(g chat.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, g)
}

// SeedMessages installs a conversation's history as-is.
func (s *Server) SeedMessages(groupID string, msgs []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[groupID] = append([]chat.Message(nil), msgs...)
}

// SeedProfiles installs the user directory.
func (s *Server) SeedProfiles(profiles []chat.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append([]chat.Profile(nil), profiles...)
}

// ReadMarks returns the message ids marked read so far.
func (s *Server) ReadMarks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.readMarks...)
}

// Dials returns how many websocket upgrades the fixture has accepted.
func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// OpenSockets counts live sockets, optionally filtered by room.
func (s *Server) OpenSockets(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for c := range s.clients {
		if roomID == "" || c.roomID == roomID {
			n++
		}
	}
	return n
}

// WaitForSockets polls until exactly want sockets are live in the room or
// the timeout passes, reporting whether the condition was met.
func (s *Server) WaitForSockets(roomID string, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.OpenSockets(roomID) == want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.OpenSockets(roomID) == want
}

// Broadcast pushes a new_message delivery to every socket in the message's room.
func (s *Server) Broadcast(msg chat.Message) {
	s.mu.Lock()
	targets := s.roomClientsLocked(msg.GroupID)
	s.mu.Unlock()

	env := deliveryEnvelope(msg)
	for _, c := range targets {
		_ = wsjson.Write(context.Background(), c.conn, env)
	}
}

// BroadcastRaw pushes an arbitrary frame to every socket in a room. Used to
// exercise unknown envelope types and malformed JSON.
func (s *Server) BroadcastRaw(roomID string, frame []byte) {
	s.mu.Lock()
	targets := s.roomClientsLocked(roomID)
	s.mu.Unlock()

	for _, c := range targets {
		_ = c.conn.Write(context.Background(), websocket.MessageText, frame)
	}
}

// KickAll drops every socket in a room without a close handshake, the shape
// of failure the reconnect policy exists for.
func (s *Server) KickAll(roomID string) {
	s.mu.Lock()
	targets := s.roomClientsLocked(roomID)
	s.mu.Unlock()

	for _, c := range targets {
		_ = c.conn.CloseNow()
	}
}

func (s *Server) roomClientsLocked(roomID string) []*wsClient {
	var out []*wsClient
	for c := range s.clients {
		if roomID == "" || c.roomID == roomID {
			out = append(out, c)
		}
	}
	return out
}

func deliveryEnvelope(msg chat.Message) map[string]any {
	return map[string]any{
		"type":    proto.TypeNewMessage,
		"message": msg,
	}
}

func (s *Server) authMiddleware(c *gin.Context) {
	s.mu.Lock()
	unauthorized := s.unauthorized
	s.mu.Unlock()

	if unauthorized {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Email == "" {
		req.Email = "teacher@school.edu"
	}

	c.JSON(http.StatusOK, gin.H{
		"token": Token,
		"user": chat.User{
			ID:       UserID,
			Email:    req.Email,
			FullName: "Test Teacher",
			Role:     "teacher",
		},
	})
}

func (s *Server) handleGroups(c *gin.Context) {
	s.mu.Lock()
	groups := append([]chat.Group(nil), s.groups...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, groups)
}

func (s *Server) handleCreateGroup(c *gin.Context) {
	var g chat.Group
	if err := c.ShouldBindJSON(&g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	g.ID = fmt.Sprintf("group-%d", len(s.groups)+1)
	g.CreatedAt = time.Now()
	g.CreatedBy = UserID
	s.groups = append(s.groups, g)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, g)
}

func (s *Server) handleGroupDetails(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == id {
			c.JSON(http.StatusOK, g)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
}

func (s *Server) handleMessages(c *gin.Context) {
	id := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	s.mu.Lock()
	msgs := append([]chat.Message(nil), s.messages[id]...)
	s.mu.Unlock()

	if offset > len(msgs) {
		offset = len(msgs)
	}
	msgs = msgs[offset:]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	c.JSON(http.StatusOK, msgs)
}

func (s *Server) handleSendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
		GroupID string `json:"group_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg := s.storeMessage(req.Content, req.GroupID, UserID)
	s.Broadcast(msg)
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) storeMessage(content, groupID, senderID string) chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMessageID++
	now := time.Now()
	msg := chat.Message{
		ID:        fmt.Sprintf("srv-%d", s.nextMessageID),
		Content:   content,
		SenderID:  senderID,
		GroupID:   groupID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.messages[groupID] = append(s.messages[groupID], msg)
	return msg
}

func (s *Server) handleAddMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	s.mu.Lock()
	s.members[id] = append(s.members[id], req.UserID)
	s.mu.Unlock()
	c.Status(http.StatusCreated)
}

func (s *Server) handleRemoveMember(c *gin.Context) {
	id := c.Param("id")
	userID := c.Param("user_id")

	s.mu.Lock()
	kept := s.members[id][:0]
	for _, m := range s.members[id] {
		if m != userID {
			kept = append(kept, m)
		}
	}
	s.members[id] = kept
	s.mu.Unlock()
	c.Status(http.StatusOK)
}

// Members returns a group's member ids in insertion order.
func (s *Server) Members(groupID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.members[groupID]...)
}

func (s *Server) lastMessageByContent(groupID, content string) (chat.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[groupID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Content == content {
			return msgs[i], true
		}
	}
	return chat.Message{}, false
}

func (s *Server) handleMarkRead(c *gin.Context) {
	s.mu.Lock()
	s.readMarks = append(s.readMarks, c.Param("id"))
	s.mu.Unlock()
	c.Status(http.StatusOK)
}

func (s *Server) handleUnread(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": 0})
}

func (s *Server) handleAdminUsers(c *gin.Context) {
	s.mu.Lock()
	fail := s.failAdminUsers
	profiles := append([]chat.Profile(nil), s.profiles...)
	s.mu.Unlock()

	if fail {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) handleUsers(c *gin.Context) {
	s.mu.Lock()
	profiles := append([]chat.Profile(nil), s.profiles...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) handleProfiles(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []chat.Profile
	for _, p := range s.profiles {
		for _, id := range req.UserIDs {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, chat.Profile{
		ID:       UserID,
		FullName: "Test Teacher",
		Role:     "teacher",
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}

	client := &wsClient{
		conn:   conn,
		userID: r.URL.Query().Get("userId"),
		roomID: r.URL.Query().Get("roomId"),
	}

	s.mu.Lock()
	s.dials++
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		_ = conn.CloseNow()
	}()

	for {
		var env proto.Envelope
		if err := wsjson.Read(context.Background(), conn, &env); err != nil {
			return
		}
		if env.Type != proto.TypeSendMessage {
			continue
		}

		var out proto.OutboundMessage
		if err := json.Unmarshal(env.Message, &out); err != nil {
			continue
		}
		// A send echo for a message already persisted over REST relays the
		// stored record; anything else is persisted first.
		msg, found := s.lastMessageByContent(out.GroupID, out.Content)
		if !found {
			msg = s.storeMessage(out.Content, out.GroupID, out.SenderID)
		}
		s.Broadcast(msg)
	}
}
