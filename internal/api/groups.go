package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

// CreateGroupRequest is the group creation body.
type CreateGroupRequest struct {
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	GroupType          string   `json:"group_type"` // class, department, custom
	OrganizationalUnit string   `json:"organizational_unit,omitempty"`
	ChatType           string   `json:"chat_type"` // group, individual
	Members            []string `json:"members,omitempty"`
}

// Groups lists the caller's groups.
func (c *Client) Groups(ctx context.Context) ([]chat.Group, error) {
	var groups []chat.Group
	if err := c.do(ctx, http.MethodGet, "/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group or individual chat.
func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (chat.Group, error) {
	var group chat.Group
	if err := c.do(ctx, http.MethodPost, "/groups", req, &group); err != nil {
		return chat.Group{}, err
	}
	return group, nil
}

// GroupDetails fetches one group.
func (c *Client) GroupDetails(ctx context.Context, groupID string) (chat.Group, error) {
	var group chat.Group
	if err := c.do(ctx, http.MethodGet, "/groups/"+groupID, nil, &group); err != nil {
		return chat.Group{}, err
	}
	return group, nil
}

type memberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AddGroupMember adds a user to a group with the given role (admin or member).
func (c *Client) AddGroupMember(ctx context.Context, groupID, userID, role string) error {
	if role == "" {
		role = "member"
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/groups/%s/members", groupID), memberRequest{UserID: userID, Role: role}, nil)
}

// RemoveGroupMember removes a user from a group.
func (c *Client) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/groups/%s/members/%s", groupID, userID), nil, nil)
}
