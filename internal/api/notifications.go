package api

import (
	"context"
	"net/http"
	"net/url"

	dom "recipeshare/internal/domain"
)

// Notifications lists the notifications of userID, newest first.
func (c *Client) Notifications(ctx context.Context, userID int64) ([]dom.Notification, error) {
	var out []dom.Notification
	err := c.do(ctx, call{
		op:     "notifications",
		method: http.MethodGet,
		path:   "/notifications",
		query:  url.Values{"userId": {id(userID)}},
	}, &out)
	if out == nil && err == nil {
		out = []dom.Notification{}
	}
	return out, err
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	return c.do(ctx, call{
		op:     "notifications.mark_read",
		method: http.MethodPut,
		path:   "/notifications",
		query:  url.Values{"action": {"mark_read"}, "notificationId": {id(notificationID)}},
	}, nil)
}

// MarkAllNotificationsRead marks every notification of userID as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	return c.do(ctx, call{
		op:     "notifications.mark_all_read",
		method: http.MethodPut,
		path:   "/notifications",
		query:  url.Values{"action": {"mark_all_read"}, "userId": {id(userID)}},
	}, nil)
}
