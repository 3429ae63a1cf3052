package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const (
	contextKeyUserID  = "user_id"
	contextKeySession = "session"
)

// UserIDFromContext returns the current user ID set by RequireSession. 0 if not set.
func UserIDFromContext(c *gin.Context) int64 {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return 0
	}
	id, ok := v.(int64)
	if !ok {
		return 0
	}
	return id
}

// SessionFromContext returns the session set by RequireSession or RequirePageSession.
func SessionFromContext(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextKeySession)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// RequireSession returns a middleware that checks for a valid session cookie
// and sets the current user ID in context. If missing or invalid, responds with 401.
func RequireSession(sessions SessionGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok, err := sessions.GetSession(c.Request)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		setSession(c, sess)
		c.Next()
	}
}

// RequirePageSession is RequireSession for HTML routes: anonymous visitors are sent
// to the login page and come back to where they were after signing in.
func RequirePageSession(sessions SessionGetter, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok, err := sessions.GetSession(c.Request)
		if err != nil || !ok {
			c.Redirect(http.StatusSeeOther, LoginRedirect(loginPath, c.Request))
			c.Abort()
			return
		}
		setSession(c, sess)
		c.Next()
	}
}

// LoginRedirect builds loginPath?next=<current path> for r. POSTs go back to the referring
// page rather than to the action endpoint.
func LoginRedirect(loginPath string, r *http.Request) string {
	next := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		next = SafeNext(refererPath(r))
	}
	return loginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext only allows local absolute paths as post-login targets.
func SafeNext(next string) string {
	if len(next) < 1 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	return next
}

func refererPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	return ref.RequestURI()
}

func setSession(c *gin.Context, s Session) {
	c.Set(contextKeySession, s)
	c.Set(contextKeyUserID, s.UserID)
}
