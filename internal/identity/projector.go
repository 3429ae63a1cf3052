// Package identity turns backend user records into the shape the page chrome renders.
package identity

import (
	"strconv"

	dom "recipeshare/internal/domain"
)

// UserView is the user as seen by templates and the /api/v1/me endpoint.
// Every field is always set; templates never branch on presence of a single field.
type UserView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Fullname     string `json:"fullname"`
	ProfileImage string `json:"profile_image"`
}

// Project maps a user record to its view. A nil record projects to nil (anonymous);
// a record with a zero ID is still a record.
func Project(u *dom.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:           strconv.FormatInt(u.ID, 10),
		Email:        deref(u.Email),
		Username:     deref(u.Username),
		Fullname:     deref(u.Fullname),
		ProfileImage: deref(u.ProfileImage),
	}
}

// DisplayName prefers the full name, then the username.
func (v *UserView) DisplayName() string {
	if v == nil {
		return ""
	}
	if v.Fullname != "" {
		return v.Fullname
	}
	return v.Username
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
