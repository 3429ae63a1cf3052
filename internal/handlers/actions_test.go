package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"recipeshare/internal/api"
	dom "recipeshare/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActions_CallBackendAndRedirect(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		form     url.Values
		op       string
		args     []any
		location string
	}{
		{"bookmark", "/recipe/5/bookmark", nil, "bookmark", []any{int64(5), signedInUserID}, "/recipe/5"},
		{"like", "/recipe/5/like", nil, "like", []any{int64(5), signedInUserID}, "/recipe/5"},
		{"comment", "/recipe/5/comments", url.Values{"comment": {"Lovely"}}, "add_comment", []any{int64(5), signedInUserID, "Lovely"}, "/recipe/5#comment-31"},
		{"delete comment", "/recipe/5/comments/31/delete", nil, "delete_comment", []any{int64(5), signedInUserID, int64(31)}, "/recipe/5"},
		{"follow", "/profile/ana/follow", nil, "follow", []any{"ana", signedInUserID}, "/profile/ana"},
		{"mark read", "/notifications/8/read", nil, "mark_read", []any{int64(8)}, "/notifications"},
		{"mark all read", "/notifications/read-all", nil, "mark_all_read", []any{signedInUserID}, "/notifications"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.backend.comment = dom.Comment{ID: 31}

			w := e.postForm(tt.path, tt.form, true)
			require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
			assert.Equal(t, tt.location, w.Header().Get("Location"))
			assert.Equal(t, 1, e.backend.calls[tt.op])
			assert.Equal(t, tt.args, e.backend.args[tt.op])
		})
	}
}

func TestActions_AnonymousIsSentToLoginWithReferer(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/recipe/5/like", nil)
	req.Header.Set("Referer", "http://example.com/recipe/5")

	w := e.do(req, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Frecipe%2F5", w.Header().Get("Location"))
	assert.Zero(t, e.backend.calls["like"])
}

func TestActions_EmptyCommentIsRejected(t *testing.T) {
	e := newTestEnv(t)
	w := e.postForm("/recipe/5/comments", url.Values{"comment": {""}}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "body is required")
	assert.Contains(t, w.Body.String(), `href="/recipe/5">Try again`)
	assert.Zero(t, e.backend.calls["add_comment"])
}

func TestActions_BackendFailureOffersRetry(t *testing.T) {
	e := newTestEnv(t)
	e.backend.err = &api.Error{Op: "like", Status: http.StatusInternalServerError}

	w := e.postForm("/recipe/5/like", nil, true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `href="/recipe/5">Try again`)
	assert.Equal(t, 1, e.backend.calls["like"], "actions are not retried automatically")
}

func TestActions_InvalidIDs(t *testing.T) {
	e := newTestEnv(t)
	for _, p := range []string{"/recipe/x/like", "/recipe/5/comments/0/delete", "/notifications/abc/read"} {
		w := e.postForm(p, nil, true)
		assert.Equal(t, http.StatusNotFound, w.Code, p)
	}
	assert.Empty(t, e.backend.calls)
}
