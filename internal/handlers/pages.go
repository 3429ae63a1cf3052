package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"recipeshare/internal/auth"
	dom "recipeshare/internal/domain"
	"recipeshare/internal/identity"
	"recipeshare/internal/layout"
	"recipeshare/internal/metrics"
	"recipeshare/internal/prefetch"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const searchLimit = 20

// Backend is the part of the REST backend client used by pages and actions.
type Backend interface {
	Feed(ctx context.Context, page int) (dom.Feed, error)
	Recipe(ctx context.Context, recipeID, viewerID int64) (dom.Recipe, error)
	Profile(ctx context.Context, username string) (dom.Profile, error)
	Notifications(ctx context.Context, userID int64) ([]dom.Notification, error)

	Bookmark(ctx context.Context, recipeID, userID int64) error
	Like(ctx context.Context, recipeID, userID int64) error
	AddComment(ctx context.Context, recipeID, userID int64, body string) (dom.Comment, error)
	DeleteComment(ctx context.Context, recipeID, userID, commentID int64) error
	Follow(ctx context.Context, username string, userID int64) error
	MarkNotificationRead(ctx context.Context, notificationID int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
}

// Searcher queries the recipe search index.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]dom.SearchHit, error)
}

type feedPage struct {
	Feed dom.Feed
}

type recipePage struct {
	Recipe dom.Recipe
}

type profilePage struct {
	Profile dom.Profile
	IsSelf  bool
}

type searchPage struct {
	Query    string
	Hits     []dom.SearchHit
	Disabled bool
}

type notificationsPage struct {
	Items  []dom.Notification
	Unread int
}

// PageHandler renders the HTML pages. Every page prefetches its queries on the server,
// embeds the snapshot and reads its content back through the hydration boundary.
type PageHandler struct {
	composer *layout.Composer
	backend  Backend
	search   Searcher
	boundary *Boundary
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewPageHandler returns a PageHandler. search may be nil when no index is configured.
func NewPageHandler(composer *layout.Composer, backend Backend, search Searcher, boundary *Boundary, m *metrics.Metrics, log *zap.Logger) *PageHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageHandler{composer: composer, backend: backend, search: search, boundary: boundary, metrics: m, log: log}
}

// Feed renders GET /?page=N.
func (h *PageHandler) Feed(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	key := prefetch.Key("feed", strconv.Itoa(page))
	fetch := func(ctx context.Context) (dom.Feed, error) { return h.backend.Feed(ctx, page) }

	shell := compose(c, h.composer, layout.Public, nil)
	st := prefetch.NewState()
	if err := prefetchQuery(c, h.metrics, st, key, fetch); err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	b, ok := h.dehydrate(c, st, &shell)
	if !ok {
		return
	}
	feed, err := prefetch.Use(c.Request.Context(), b, key, fetch)
	if err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	shell.Title = "Feed"
	shell.Content = feedPage{Feed: feed}
	c.HTML(http.StatusOK, "feed", shell)
}

// Recipe renders GET /recipe/:id as seen by the current user.
func (h *PageHandler) Recipe(c *gin.Context) {
	recipeID, ok := int64Param(c, "id")
	if !ok {
		h.boundary.NotFound(c)
		return
	}
	shell := compose(c, h.composer, layout.Public, nil)
	viewer := viewerID(shell.User)
	key := prefetch.Key("recipe", strconv.FormatInt(recipeID, 10))
	fetch := func(ctx context.Context) (dom.Recipe, error) { return h.backend.Recipe(ctx, recipeID, viewer) }

	st := prefetch.NewState()
	if err := prefetchQuery(c, h.metrics, st, key, fetch); err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	b, ok := h.dehydrate(c, st, &shell)
	if !ok {
		return
	}
	recipe, err := prefetch.Use(c.Request.Context(), b, key, fetch)
	if err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	shell.Title = recipe.Title
	shell.Content = recipePage{Recipe: recipe}
	c.HTML(http.StatusOK, "recipe", shell)
}

// Profile renders GET /profile/:username.
func (h *PageHandler) Profile(c *gin.Context) {
	username := c.Param("username")
	key := prefetch.Key("profile", username)
	fetch := func(ctx context.Context) (dom.Profile, error) { return h.backend.Profile(ctx, username) }

	shell := compose(c, h.composer, layout.Public, nil)
	st := prefetch.NewState()
	if err := prefetchQuery(c, h.metrics, st, key, fetch); err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	b, ok := h.dehydrate(c, st, &shell)
	if !ok {
		return
	}
	profile, err := prefetch.Use(c.Request.Context(), b, key, fetch)
	if err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	shell.Title = profile.Username
	shell.Content = profilePage{
		Profile: profile,
		IsSelf:  shell.User != nil && shell.User.Username == profile.Username,
	}
	c.HTML(http.StatusOK, "profile", shell)
}

// Search renders GET /search?q=. Without a configured index the page says so.
func (h *PageHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	shell := compose(c, h.composer, layout.Public, nil)
	shell.Title = "Search"
	content := searchPage{Query: q, Disabled: h.search == nil}
	if h.search == nil || q == "" {
		shell.Content = content
		c.HTML(http.StatusOK, "search", shell)
		return
	}

	key := prefetch.Key("search", q)
	fetch := func(ctx context.Context) ([]dom.SearchHit, error) { return h.search.Search(ctx, q, searchLimit) }
	st := prefetch.NewState()
	if err := prefetchQuery(c, h.metrics, st, key, fetch); err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	b, ok := h.dehydrate(c, st, &shell)
	if !ok {
		return
	}
	hits, err := prefetch.Use(c.Request.Context(), b, key, fetch)
	if err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	content.Hits = hits
	shell.Content = content
	c.HTML(http.StatusOK, "search", shell)
}

// Notifications renders GET /notifications. The route sits behind RequirePageSession.
func (h *PageHandler) Notifications(c *gin.Context) {
	shell := compose(c, h.composer, layout.Protected, nil)
	userID := auth.UserIDFromContext(c)
	if userID == 0 || shell.User == nil {
		// The session outlived its user.
		c.Redirect(http.StatusSeeOther, "/login?next=%2Fnotifications")
		return
	}
	key := prefetch.Key("notifications", strconv.FormatInt(userID, 10))
	fetch := func(ctx context.Context) ([]dom.Notification, error) { return h.backend.Notifications(ctx, userID) }

	st := prefetch.NewState()
	if err := prefetchQuery(c, h.metrics, st, key, fetch); err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	b, ok := h.dehydrate(c, st, &shell)
	if !ok {
		return
	}
	items, err := prefetch.Use(c.Request.Context(), b, key, fetch)
	if err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return
	}
	content := notificationsPage{Items: items}
	for _, n := range items {
		if !n.Read {
			content.Unread++
		}
	}
	shell.Title = "Notifications"
	shell.Content = content
	c.HTML(http.StatusOK, "notifications", shell)
}

// dehydrate snapshots st into the shell and hydrates it back for the page content.
func (h *PageHandler) dehydrate(c *gin.Context, st *prefetch.State, shell *layout.Shell) (*prefetch.Boundary, bool) {
	snap, err := st.Snapshot()
	if err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return nil, false
	}
	b, err := prefetch.Hydrate(snap)
	if err != nil {
		h.boundary.Fail(c, err, c.Request.URL.RequestURI())
		return nil, false
	}
	shell.State = snap
	return b, true
}

func prefetchQuery[T any](c *gin.Context, m *metrics.Metrics, st *prefetch.State, key string, fetch prefetch.FetchFunc[T]) error {
	err := prefetch.Prefetch(c.Request.Context(), st, key, fetch)
	m.Prefetch(prefetch.Family(key), err)
	return err
}

// viewerID returns the numeric id of the signed-in user, 0 for anonymous visitors.
func viewerID(u *identity.UserView) int64 {
	if u == nil {
		return 0
	}
	id, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
