package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"recipeshare/internal/auth"
	dom "recipeshare/internal/domain"
	"recipeshare/internal/layout"
	"recipeshare/internal/metrics"
	"recipeshare/internal/render"
	"recipeshare/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	signedInCookie = "valid"
	signedInUserID = int64(7)
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

// fakeSessions treats the cookie value "valid" as the session of user 7.
type fakeSessions struct {
	err error
}

func (f *fakeSessions) GetSession(r *http.Request) (auth.Session, bool, error) {
	if f.err != nil {
		return auth.Session{}, false, f.err
	}
	id, ok := auth.SessionIDFromRequest(r)
	if !ok || id != signedInCookie {
		return auth.Session{}, false, nil
	}
	return auth.Session{ID: id, UserID: signedInUserID, ExpiresAt: now.Add(time.Hour).Unix()}, true, nil
}

type fakeUsers struct {
	resolved   int
	registered []string
	loginErr   error
	registerFn func(username, email string) (dom.User, error)
}

func strPtr(s string) *string { return &s }

func (f *fakeUsers) GetCurrentUser(_ context.Context, s auth.Session) (*dom.User, error) {
	f.resolved++
	return &dom.User{ID: s.UserID, Username: strPtr("maria"), Fullname: strPtr("Maria Lopez")}, nil
}

func (f *fakeUsers) ValidateCredentials(_ context.Context, username, password string) (dom.User, error) {
	if f.loginErr != nil {
		return dom.User{}, f.loginErr
	}
	if username != "maria" || password != "secret-pass" {
		return dom.User{}, service.ErrInvalidCredentials
	}
	return dom.User{ID: signedInUserID, Username: strPtr("maria")}, nil
}

func (f *fakeUsers) Register(_ context.Context, username, email, _ string) (dom.User, error) {
	f.registered = append(f.registered, username)
	if f.registerFn != nil {
		return f.registerFn(username, email)
	}
	u := dom.User{ID: 11, Username: &username}
	if email != "" {
		u.Email = &email
	}
	return u, nil
}

type fakeStore struct {
	created []int64
	deleted []string
	err     error
}

func (f *fakeStore) Create(_ context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, userID)
	return "new-session", nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) TTL() time.Duration { return time.Hour }

type fakeMailer struct {
	welcomed []string
}

func (f *fakeMailer) SendWelcome(_ context.Context, to, _ string) error {
	f.welcomed = append(f.welcomed, to)
	return nil
}

func (f *fakeMailer) SendWelcomeAsync(to, username string) {
	_ = f.SendWelcome(context.Background(), to, username)
}

func (f *fakeMailer) Close() error { return nil }

type fakeBackend struct {
	feed          dom.Feed
	recipe        dom.Recipe
	profile       dom.Profile
	notifications []dom.Notification
	comment       dom.Comment
	err           error

	calls  map[string]int
	args   map[string][]any
	viewer int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string]int{}, args: map[string][]any{}}
}

func (f *fakeBackend) record(op string, args ...any) error {
	f.calls[op]++
	f.args[op] = args
	return f.err
}

func (f *fakeBackend) Feed(_ context.Context, page int) (dom.Feed, error) {
	return f.feed, f.record("feed", page)
}

func (f *fakeBackend) Recipe(_ context.Context, recipeID, viewerID int64) (dom.Recipe, error) {
	f.viewer = viewerID
	return f.recipe, f.record("recipe", recipeID, viewerID)
}

func (f *fakeBackend) Profile(_ context.Context, username string) (dom.Profile, error) {
	return f.profile, f.record("profile", username)
}

func (f *fakeBackend) Notifications(_ context.Context, userID int64) ([]dom.Notification, error) {
	return f.notifications, f.record("notifications", userID)
}

func (f *fakeBackend) Bookmark(_ context.Context, recipeID, userID int64) error {
	return f.record("bookmark", recipeID, userID)
}

func (f *fakeBackend) Like(_ context.Context, recipeID, userID int64) error {
	return f.record("like", recipeID, userID)
}

func (f *fakeBackend) AddComment(_ context.Context, recipeID, userID int64, body string) (dom.Comment, error) {
	return f.comment, f.record("add_comment", recipeID, userID, body)
}

func (f *fakeBackend) DeleteComment(_ context.Context, recipeID, userID, commentID int64) error {
	return f.record("delete_comment", recipeID, userID, commentID)
}

func (f *fakeBackend) Follow(_ context.Context, username string, userID int64) error {
	return f.record("follow", username, userID)
}

func (f *fakeBackend) MarkNotificationRead(_ context.Context, notificationID int64) error {
	return f.record("mark_read", notificationID)
}

func (f *fakeBackend) MarkAllNotificationsRead(_ context.Context, userID int64) error {
	return f.record("mark_all_read", userID)
}

type fakeSearcher struct {
	hits  []dom.SearchHit
	err   error
	calls int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]dom.SearchHit, error) {
	f.calls++
	return f.hits, f.err
}

type testEnv struct {
	backend  *fakeBackend
	search   *fakeSearcher
	sessions *fakeSessions
	users    *fakeUsers
	store    *fakeStore
	mailer   *fakeMailer
	router   *gin.Engine
}

type envOption func(*testEnv, *PageHandler)

func withoutSearch() envOption {
	return func(_ *testEnv, p *PageHandler) { p.search = nil }
}

// newTestEnv wires the handlers the same way the app does, on fakes.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	renderer, err := render.New(func() time.Time { return now })
	require.NoError(t, err)

	e := &testEnv{
		backend:  newFakeBackend(),
		search:   &fakeSearcher{},
		sessions: &fakeSessions{},
		users:    &fakeUsers{},
		store:    &fakeStore{},
		mailer:   &fakeMailer{},
	}
	composer := layout.NewComposer(e.sessions, e.users, nil)
	boundary := NewBoundary(composer, nil)
	pages := NewPageHandler(composer, e.backend, e.search, boundary, metrics.New(prometheus.NewRegistry()), nil)
	for _, o := range opts {
		o(e, pages)
	}
	actions := NewActionHandler(e.backend, boundary, nil)
	authH := NewAuthHandler(e.store, e.users, e.mailer, composer, boundary, false, nil)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(boundary.Recovery())
	r.NoRoute(boundary.NotFound)

	r.GET("/", pages.Feed)
	r.GET("/recipe/:id", pages.Recipe)
	r.GET("/profile/:username", pages.Profile)
	r.GET("/search", pages.Search)
	r.GET("/login", authH.LoginPage)
	r.POST("/login", authH.Login)
	r.GET("/register", authH.RegisterPage)
	r.POST("/register", authH.Register)
	r.POST("/logout", authH.Logout)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	protected := r.Group("", auth.RequirePageSession(e.sessions, "/login"))
	protected.GET("/notifications", pages.Notifications)
	protected.POST("/notifications/:id/read", actions.MarkRead)
	protected.POST("/notifications/read-all", actions.MarkAllRead)
	protected.POST("/recipe/:id/bookmark", actions.Bookmark)
	protected.POST("/recipe/:id/like", actions.Like)
	protected.POST("/recipe/:id/comments", actions.AddComment)
	protected.POST("/recipe/:id/comments/:commentId/delete", actions.DeleteComment)
	protected.POST("/profile/:username/follow", actions.Follow)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", authH.APILogin)
	v1.POST("/auth/register", authH.APIRegister)
	v1.POST("/auth/logout", authH.APILogout)
	v1.GET("/auth/session", auth.RequireSession(e.sessions), authH.Session)
	v1.GET("/me", authH.Me)

	e.router = r
	return e
}

func (e *testEnv) do(req *http.Request, signedIn bool) *httptest.ResponseRecorder {
	if signedIn {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: signedInCookie})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string, signedIn bool) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), signedIn)
}

func (e *testEnv) postForm(path string, form url.Values, signedIn bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, signedIn)
}

func (e *testEnv) postJSON(path, body string, signedIn bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, signedIn)
}

var errBackendDown = errors.New("dial tcp: connection refused")
