package auth

import (
	"net/http"
)

// SessionGetter returns the session of an inbound request, if any.
type SessionGetter interface {
	GetSession(r *http.Request) (Session, bool, error)
}

// CookieAccessor reads the session cookie and checks it against the store.
// It never writes: expired cookies are left to the browser and to logout.
type CookieAccessor struct {
	store *Store
}

// NewCookieAccessor returns a CookieAccessor backed by store.
func NewCookieAccessor(store *Store) *CookieAccessor {
	return &CookieAccessor{store: store}
}

// GetSession implements SessionGetter.
func (a *CookieAccessor) GetSession(r *http.Request) (Session, bool, error) {
	id, ok := SessionIDFromRequest(r)
	if !ok {
		return Session{}, false, nil
	}
	return a.store.Get(r.Context(), id)
}
