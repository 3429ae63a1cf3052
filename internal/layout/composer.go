// Package layout resolves who is looking at a page and wraps page content in the site chrome.
package layout

import (
	"context"
	"net/http"

	"recipeshare/internal/auth"
	dom "recipeshare/internal/domain"
	"recipeshare/internal/identity"
	"recipeshare/internal/prefetch"

	"go.uber.org/zap"
)

// Variant selects the chrome around page content.
type Variant int

const (
	// Public pages get the header and the footer.
	Public Variant = iota
	// Protected pages get the header only.
	Protected
)

func (v Variant) String() string {
	switch v {
	case Public:
		return "public"
	case Protected:
		return "protected"
	default:
		return "unknown"
	}
}

// UserResolver loads the user behind a session. (nil, nil) means the user is gone.
type UserResolver interface {
	GetCurrentUser(ctx context.Context, s auth.Session) (*dom.User, error)
}

// Shell is what the layout template renders: chrome driven by User, then Content.
type Shell struct {
	Variant Variant
	Title   string
	Path    string
	User    *identity.UserView
	Content any
	// State is the prefetch snapshot embedded for page scripts; empty when nothing was prefetched.
	State prefetch.Snapshot
}

// Anonymous reports whether no user is signed in.
func (s Shell) Anonymous() bool { return s.User == nil }

// ShowFooter reports whether the variant renders the footer.
func (s Shell) ShowFooter() bool { return s.Variant == Public }

// Composer builds shells. It holds no per-request state.
type Composer struct {
	sessions auth.SessionGetter
	users    UserResolver
	log      *zap.Logger
}

func NewComposer(sessions auth.SessionGetter, users UserResolver, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{sessions: sessions, users: users, log: log}
}

// Resolve returns the view of the signed-in user, or nil for anonymous visitors.
// Lookup failures are logged and degrade to anonymous.
func (c *Composer) Resolve(r *http.Request) *identity.UserView {
	sess, ok, err := c.sessions.GetSession(r)
	if err != nil {
		c.log.Warn("session lookup failed, rendering anonymous", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	u, err := c.users.GetCurrentUser(r.Context(), sess)
	if err != nil {
		c.log.Warn("user lookup failed, rendering anonymous",
			zap.Int64("session_user_id", sess.UserID), zap.Error(err))
		return nil
	}
	if u == nil {
		c.log.Debug("session user no longer exists", zap.Int64("session_user_id", sess.UserID))
	}
	return identity.Project(u)
}

// Compose resolves the user of r and wraps content for variant v.
func (c *Composer) Compose(r *http.Request, v Variant, content any) Shell {
	return c.ComposeFor(r, v, c.Resolve(r), content)
}

// ComposeFor wraps content for an already resolved user. No lookups are made.
func (c *Composer) ComposeFor(r *http.Request, v Variant, user *identity.UserView, content any) Shell {
	return Shell{
		Variant: v,
		Path:    r.URL.Path,
		User:    user,
		Content: content,
	}
}
