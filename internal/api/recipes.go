package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	dom "recipeshare/internal/domain"

	"go.uber.org/zap"
)

// recipeAction is the action discriminator of PUT/POST/DELETE /recipe/{recipeId}/{userId}.
type recipeAction string

const (
	actionBookmark      recipeAction = "bookmark"
	actionLike          recipeAction = "like"
	actionNewComment    recipeAction = "new_comment"
	actionDeleteComment recipeAction = "delete_comment"
)

// Feed returns one page of the public feed. Pages start at 1.
func (c *Client) Feed(ctx context.Context, page int) (dom.Feed, error) {
	if page < 1 {
		page = 1
	}
	load := func() (dom.Feed, error) {
		var f dom.Feed
		err := c.do(ctx, call{
			op:     "feed",
			method: http.MethodGet,
			path:   "/feed",
			query:  url.Values{"page": {strconv.Itoa(page)}},
		}, &f)
		return f, err
	}
	if c.cache == nil {
		return load()
	}
	v, err, _ := c.sf.Do("feed:"+strconv.Itoa(page), func() (interface{}, error) {
		if f, err := c.cache.GetFeed(ctx, page); err == nil && f != nil {
			return *f, nil
		}
		f, err := load()
		if err != nil {
			return nil, err
		}
		_ = c.cache.SetFeed(ctx, page, f)
		return f, nil
	})
	if err != nil {
		return dom.Feed{}, err
	}
	return v.(dom.Feed), nil
}

// Recipe returns a recipe as seen by viewerID (0 for anonymous visitors).
func (c *Client) Recipe(ctx context.Context, recipeID, viewerID int64) (dom.Recipe, error) {
	load := func() (dom.Recipe, error) {
		var r dom.Recipe
		rq := call{op: "recipe", method: http.MethodGet, path: pathf("recipe", id(recipeID))}
		if viewerID != 0 {
			rq.query = url.Values{"userId": {id(viewerID)}}
		}
		err := c.do(ctx, rq, &r)
		return r, err
	}
	if c.cache == nil {
		return load()
	}
	key := "recipe:" + id(recipeID) + ":" + id(viewerID)
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if r, err := c.cache.GetRecipe(ctx, recipeID, viewerID); err == nil && r != nil {
			return *r, nil
		}
		r, err := load()
		if err != nil {
			return nil, err
		}
		_ = c.cache.SetRecipe(ctx, recipeID, viewerID, r)
		return r, nil
	})
	if err != nil {
		return dom.Recipe{}, err
	}
	return v.(dom.Recipe), nil
}

// Bookmark toggles the bookmark of userID on a recipe.
func (c *Client) Bookmark(ctx context.Context, recipeID, userID int64) error {
	err := c.recipeAction(ctx, http.MethodPut, recipeID, userID, actionBookmark, nil, nil)
	c.invalidate(ctx, recipeID, true)
	return err
}

// Like toggles the like of userID on a recipe.
func (c *Client) Like(ctx context.Context, recipeID, userID int64) error {
	err := c.recipeAction(ctx, http.MethodPut, recipeID, userID, actionLike, nil, nil)
	c.invalidate(ctx, recipeID, true)
	return err
}

// AddComment posts a comment by userID and returns it as stored by the backend.
func (c *Client) AddComment(ctx context.Context, recipeID, userID int64, body string) (dom.Comment, error) {
	var out dom.Comment
	err := c.recipeAction(ctx, http.MethodPost, recipeID, userID, actionNewComment, nil,
		map[string]string{"comment": body}, &out)
	c.invalidate(ctx, recipeID, false)
	return out, err
}

// DeleteComment removes a comment of userID.
func (c *Client) DeleteComment(ctx context.Context, recipeID, userID, commentID int64) error {
	err := c.recipeAction(ctx, http.MethodDelete, recipeID, userID, actionDeleteComment,
		url.Values{"commentId": {id(commentID)}}, nil)
	c.invalidate(ctx, recipeID, false)
	return err
}

func (c *Client) recipeAction(ctx context.Context, method string, recipeID, userID int64, a recipeAction, extra url.Values, body any, out ...any) error {
	q := url.Values{"action": {string(a)}}
	for k, v := range extra {
		q[k] = v
	}
	var dst any
	if len(out) > 0 {
		dst = out[0]
	}
	return c.do(ctx, call{
		op:     "recipe." + string(a),
		method: method,
		path:   pathf("recipe", id(recipeID), id(userID)),
		query:  q,
		body:   body,
	}, dst)
}

// invalidate drops cached reads a recipe write may have changed. It runs on failed
// writes too: the backend may have applied a write whose response got lost.
func (c *Client) invalidate(ctx context.Context, recipeID int64, feed bool) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateRecipe(ctx, recipeID); err != nil {
		c.log.Warn("recipe cache invalidation failed", zap.Int64("recipe_id", recipeID), zap.Error(err))
	}
	if feed {
		if err := c.cache.InvalidateFeed(ctx); err != nil {
			c.log.Warn("feed cache invalidation failed", zap.Error(err))
		}
	}
}

func id(v int64) string { return strconv.FormatInt(v, 10) }
