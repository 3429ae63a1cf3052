package render

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dom "recipeshare/internal/domain"
	"recipeshare/internal/identity"
	"recipeshare/internal/layout"
	"recipeshare/internal/prefetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(func() time.Time { return fixedNow })
	require.NoError(t, err)
	return r
}

func renderPage(t *testing.T, r *Renderer, page string, shell layout.Shell) string {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, r.Instance(page, shell).Render(w))
	return w.Body.String()
}

func TestNew_ParsesEveryPage(t *testing.T) {
	r := newRenderer(t)
	for _, p := range []string{"feed", "recipe", "profile", "search", "notifications", "login", "register", "error", "not_found"} {
		assert.True(t, r.Has(p), p)
	}
	assert.False(t, r.Has("layout"))
}

func TestRender_AnonymousPublicShell(t *testing.T) {
	r := newRenderer(t)
	body := renderPage(t, r, "feed", layout.Shell{
		Variant: layout.Public,
		Title:   "Feed",
		Content: struct{ Feed dom.Feed }{Feed: dom.Feed{Page: 1}},
	})

	assert.Contains(t, body, `href="/login"`)
	assert.Contains(t, body, `class="site-footer"`)
	assert.Contains(t, body, `class="layout-public"`)
	assert.Contains(t, body, "No recipes yet")
	assert.Contains(t, body, `<script type="application/json" id="__PREFETCH_STATE__">{"queries":[]}</script>`)
}

func TestRender_ProtectedShellHasNoFooter(t *testing.T) {
	r := newRenderer(t)
	body := renderPage(t, r, "notifications", layout.Shell{
		Variant: layout.Protected,
		User:    &identity.UserView{ID: "7", Username: "maria", Fullname: "Maria Lopez"},
		Content: struct {
			Items  []dom.Notification
			Unread int
		}{},
	})

	assert.NotContains(t, body, `class="site-footer"`)
	assert.Contains(t, body, `data-user-id="7"`)
	assert.Contains(t, body, "Maria Lopez")
	assert.Contains(t, body, "ML")
	assert.Contains(t, body, `action="/logout"`)
	assert.NotContains(t, body, `href="/login"`)
}

func TestRender_FeedCardsUseHelpers(t *testing.T) {
	r := newRenderer(t)
	feed := dom.Feed{
		Page:    1,
		HasMore: true,
		Items: []dom.FeedItem{{
			RecipeID:    42,
			Title:       "Shakshuka",
			CookMinutes: 90,
			Likes:       1,
			Comments:    1500,
			Author:      dom.Author{ID: 3, Username: "ana"},
			CreatedAt:   fixedNow.Add(-2 * time.Hour),
		}},
	}
	body := renderPage(t, r, "feed", layout.Shell{Content: struct{ Feed dom.Feed }{feed}})

	assert.Contains(t, body, `href="/recipe/42"`)
	assert.Contains(t, body, `href="/profile/ana"`)
	assert.Contains(t, body, "2h ago")
	assert.Contains(t, body, "1 h 30 min")
	assert.Contains(t, body, "1 like")
	assert.Contains(t, body, "1.5k comments")
	assert.Contains(t, body, `href="/?page=2"`)
}

func TestRender_SnapshotIsEmbeddedVerbatim(t *testing.T) {
	r := newRenderer(t)
	snap, err := prefetch.Query(context.Background(), "feed", func(context.Context) (dom.Feed, error) {
		return dom.Feed{Page: 1, Items: []dom.FeedItem{{RecipeID: 1, Title: "</script><script>alert(1)</script>"}}}, nil
	})
	require.NoError(t, err)

	body := renderPage(t, r, "feed", layout.Shell{Content: struct{ Feed dom.Feed }{}, State: snap})

	start := strings.Index(body, `id="__PREFETCH_STATE__">`)
	require.NotEqual(t, -1, start)
	script := body[start:]
	script = script[:strings.Index(script, "</script>")]
	assert.Contains(t, script, `"key":"feed"`)
	assert.Contains(t, script, `\u003c/script\u003e`)
}

func TestRender_EscapesUserContent(t *testing.T) {
	r := newRenderer(t)
	body := renderPage(t, r, "not_found", layout.Shell{
		Content: struct{ Path string }{Path: "/<b>nope</b>"},
	})
	assert.Contains(t, body, "/&lt;b&gt;nope&lt;/b&gt;")
}

func TestInstance_UnknownPage(t *testing.T) {
	r := newRenderer(t)
	w := httptest.NewRecorder()
	err := r.Instance("missing", nil).Render(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestStatic_ServesStylesheet(t *testing.T) {
	f, err := Static().Open("app.css")
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}
