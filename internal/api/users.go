package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

type profilesRequest struct {
	UserIDs []string `json:"user_ids"`
}

// CurrentUser fetches the caller's own profile.
func (c *Client) CurrentUser(ctx context.Context) (chat.Profile, error) {
	var profile chat.Profile
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &profile); err != nil {
		return chat.Profile{}, err
	}
	return profile, nil
}

// ProfileUpdate carries the editable profile fields. Empty fields are left
// untouched by the backend.
type ProfileUpdate struct {
	FullName           string `json:"full_name,omitempty"`
	AvatarURL          string `json:"avatar_url,omitempty"`
	OrganizationalUnit string `json:"organizational_unit,omitempty"`
}

// UpdateProfile applies profile changes and returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (chat.Profile, error) {
	var profile chat.Profile
	if err := c.do(ctx, http.MethodPut, "/user/profile", update, &profile); err != nil {
		return chat.Profile{}, err
	}
	return profile, nil
}

// Profiles batch-fetches profiles for the given ids; with no ids it returns
// the full directory.
func (c *Client) Profiles(ctx context.Context, userIDs []string) ([]chat.Profile, error) {
	if len(userIDs) > 0 {
		var profiles []chat.Profile
		if err := c.do(ctx, http.MethodPost, "/users/profiles", profilesRequest{UserIDs: userIDs}, &profiles); err != nil {
			return nil, err
		}
		return profiles, nil
	}
	return c.AllUsers(ctx)
}

// AllUsers lists every user. The admin endpoint is tried first; deployments
// without admin access expose the same data on /users.
func (c *Client) AllUsers(ctx context.Context) ([]chat.Profile, error) {
	var profiles []chat.Profile
	err := c.do(ctx, http.MethodGet, "/admin/users", nil, &profiles)
	if err == nil {
		return profiles, nil
	}
	if errors.Is(err, ErrUnauthorized) {
		return nil, err
	}

	c.log.Debug().Err(err).Msg("admin user listing failed, trying public endpoint")
	if err := c.do(ctx, http.MethodGet, "/users", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
