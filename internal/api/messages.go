package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

type sendMessageRequest struct {
	Content string `json:"content"`
	GroupID string `json:"group_id"`
}

// Messages fetches a page of a conversation's history, ordered by the server.
func (c *Client) Messages(ctx context.Context, groupID string, limit, offset int) ([]chat.Message, error) {
	var msgs []chat.Message
	path := fmt.Sprintf("/groups/%s/messages?limit=%d&offset=%d", groupID, limit, offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage persists a message; the created message (with its server id)
// comes back in the response.
func (c *Client) SendMessage(ctx context.Context, content, groupID string) (chat.Message, error) {
	var msg chat.Message
	if err := c.do(ctx, http.MethodPost, "/messages", sendMessageRequest{Content: content, GroupID: groupID}, &msg); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// MarkMessageRead records that the caller has read the message. Best-effort;
// callers log failures and move on.
func (c *Client) MarkMessageRead(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/messages/%s/read", messageID), nil, nil)
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// UnreadCount returns the caller's unread message count, optionally scoped
// to one group.
func (c *Client) UnreadCount(ctx context.Context, groupID string) (int, error) {
	path := "/messages/unread"
	if groupID != "" {
		path += "?group_id=" + groupID
	}
	var resp unreadCountResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}
