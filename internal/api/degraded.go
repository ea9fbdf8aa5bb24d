package api

import (
	"context"
	"errors"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

// GroupsResult tags a group listing with its origin: live backend data or
// the demo dataset served because the fetch failed.
type GroupsResult struct {
	Groups   []chat.Group
	Degraded bool
}

// MessagesResult tags a history page with its origin.
type MessagesResult struct {
	Messages []chat.Message
	Degraded bool
}

// ProfilesResult tags a directory listing with its origin.
type ProfilesResult struct {
	Profiles []chat.Profile
	Degraded bool
}

// FetchGroups lists groups, degrading to the demo dataset when the live
// fetch fails and a fallback is configured. A 401 never degrades; it forces
// logout instead.
func (c *Client) FetchGroups(ctx context.Context) (GroupsResult, error) {
	groups, err := c.Groups(ctx)
	if err == nil {
		return GroupsResult{Groups: groups}, nil
	}
	if c.demo == nil || errors.Is(err, ErrUnauthorized) {
		return GroupsResult{}, err
	}

	c.log.Warn().Err(err).Msg("group fetch failed, serving demo data")
	return GroupsResult{Groups: c.demo.Groups(), Degraded: true}, nil
}

// FetchMessages pages a conversation's history with the same degradation
// contract as FetchGroups.
func (c *Client) FetchMessages(ctx context.Context, groupID string, limit, offset int) (MessagesResult, error) {
	msgs, err := c.Messages(ctx, groupID, limit, offset)
	if err == nil {
		return MessagesResult{Messages: msgs}, nil
	}
	if c.demo == nil || errors.Is(err, ErrUnauthorized) {
		return MessagesResult{}, err
	}

	c.log.Warn().Err(err).Str("group_id", groupID).Msg("message fetch failed, serving demo data")
	return MessagesResult{Messages: c.demo.Messages(groupID), Degraded: true}, nil
}

// FetchProfiles lists directory profiles with the same degradation contract.
func (c *Client) FetchProfiles(ctx context.Context, userIDs []string) (ProfilesResult, error) {
	profiles, err := c.Profiles(ctx, userIDs)
	if err == nil {
		return ProfilesResult{Profiles: profiles}, nil
	}
	if c.demo == nil || errors.Is(err, ErrUnauthorized) {
		return ProfilesResult{}, err
	}

	c.log.Warn().Err(err).Msg("profile fetch failed, serving demo data")
	return ProfilesResult{Profiles: c.demo.Profiles(userIDs), Degraded: true}, nil
}
