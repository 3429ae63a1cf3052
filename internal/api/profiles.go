package api

import (
	"context"
	"net/http"
	"net/url"

	dom "recipeshare/internal/domain"
)

// Profile returns the public profile of username.
func (c *Client) Profile(ctx context.Context, username string) (dom.Profile, error) {
	var p dom.Profile
	err := c.do(ctx, call{op: "profile", method: http.MethodGet, path: pathf("profile", username)}, &p)
	return p, err
}

// Follow toggles userID following username.
func (c *Client) Follow(ctx context.Context, username string, userID int64) error {
	return c.do(ctx, call{
		op:     "profile.follow",
		method: http.MethodPut,
		path:   pathf("profile", username),
		query:  url.Values{"action": {"follow"}, "userId": {id(userID)}},
	}, nil)
}
