package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipeshare/internal/auth"
	dom "recipeshare/internal/domain"
	"recipeshare/internal/dto"
	"recipeshare/internal/identity"
	"recipeshare/internal/layout"
	"recipeshare/internal/mail"
	"recipeshare/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionStore creates and removes server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

// Authenticator checks and creates user accounts.
type Authenticator interface {
	ValidateCredentials(ctx context.Context, username, password string) (dom.User, error)
	Register(ctx context.Context, username, email, password string) (dom.User, error)
}

type authPage struct {
	Next     string
	Username string
	Email    string
	Error    string
}

// AuthHandler handles login, register and logout, both as HTML forms and as JSON.
type AuthHandler struct {
	sessions SessionStore
	users    Authenticator
	mailer   mail.Mailer
	composer *layout.Composer
	boundary *Boundary
	secure   bool
	log      *zap.Logger
}

// NewAuthHandler returns a new AuthHandler. secure marks the session cookie Secure.
func NewAuthHandler(sessions SessionStore, users Authenticator, mailer mail.Mailer, composer *layout.Composer, boundary *Boundary, secure bool, log *zap.Logger) *AuthHandler {
	if mailer == nil {
		mailer = mail.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		sessions: sessions,
		users:    users,
		mailer:   mailer,
		composer: composer,
		boundary: boundary,
		secure:   secure,
		log:      log,
	}
}

// LoginPage renders GET /login. Signed-in users go straight to next.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	next := auth.SafeNext(c.Query("next"))
	shell := compose(c, h.composer, layout.Public, authPage{Next: next})
	if !shell.Anonymous() {
		c.Redirect(http.StatusSeeOther, next)
		return
	}
	shell.Title = "Log in"
	c.HTML(http.StatusOK, "login", shell)
}

// Login handles the POST /login form.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderForm(c, http.StatusBadRequest, "login", authPage{
			Next: auth.SafeNext(req.Next), Username: req.Username, Error: bindingMessage(err),
		})
		return
	}
	next := auth.SafeNext(req.Next)
	user, err := h.users.ValidateCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.renderForm(c, http.StatusUnauthorized, "login", authPage{
				Next: next, Username: req.Username, Error: "Invalid username or password.",
			})
			return
		}
		h.boundary.Fail(c, err, "/login")
		return
	}
	if err := h.startSession(c, user.ID); err != nil {
		h.boundary.Fail(c, err, "/login")
		return
	}
	c.Redirect(http.StatusSeeOther, next)
}

// RegisterPage renders GET /register.
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	shell := compose(c, h.composer, layout.Public, authPage{})
	if !shell.Anonymous() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	shell.Title = "Sign up"
	c.HTML(http.StatusOK, "register", shell)
}

// Register handles the POST /register form.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderForm(c, http.StatusBadRequest, "register", authPage{
			Username: req.Username, Email: req.Email, Error: bindingMessage(err),
		})
		return
	}
	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.renderForm(c, http.StatusBadRequest, "register", authPage{
				Username: req.Username, Email: req.Email, Error: "Username and password are required.",
			})
		case errors.Is(err, service.ErrUsernameTaken):
			h.renderForm(c, http.StatusConflict, "register", authPage{
				Username: req.Username, Email: req.Email, Error: "That username or email is already taken.",
			})
		default:
			h.boundary.Fail(c, err, "/register")
		}
		return
	}
	if err := h.startSession(c, user.ID); err != nil {
		h.boundary.Fail(c, err, "/login")
		return
	}
	h.welcome(user)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.endSession(c)
	c.Redirect(http.StatusSeeOther, "/")
}

// APILogin handles POST /api/v1/auth/login.
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	user, err := h.users.ValidateCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		h.log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if err := h.startSession(c, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": userResponse(user)})
}

// APIRegister handles POST /api/v1/auth/register.
func (h *AuthHandler) APIRegister(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		h.log.Error("registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	if err := h.startSession(c, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	h.welcome(user)
	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": userResponse(user)})
}

// APILogout handles POST /api/v1/auth/logout.
func (h *AuthHandler) APILogout(c *gin.Context) {
	h.endSession(c)
	c.Status(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session. The route sits behind RequireSession.
func (h *AuthHandler) Session(c *gin.Context) {
	sess, ok := auth.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	c.JSON(http.StatusOK, dto.SessionResponse{UserID: sess.UserID, ExpiresAt: sess.Expires().UTC()})
}

// Me returns the projected current user, or null for anonymous callers.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.composer.Resolve(c.Request))
}

func (h *AuthHandler) startSession(c *gin.Context, userID int64) error {
	sessionID, err := h.sessions.Create(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("create session", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	auth.SetSessionCookie(c, sessionID, h.sessions.TTL(), h.secure)
	return nil
}

func (h *AuthHandler) endSession(c *gin.Context) {
	if sessionID, ok := auth.SessionIDFromRequest(c.Request); ok {
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			h.log.Warn("delete session", zap.Error(err))
		}
	}
	auth.ClearSessionCookie(c, h.secure)
}

func (h *AuthHandler) welcome(u dom.User) {
	if u.Email == nil || *u.Email == "" {
		return
	}
	h.mailer.SendWelcomeAsync(*u.Email, identity.Project(&u).Username)
}

func userResponse(u dom.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Username: identity.Project(&u).Username}
}

func (h *AuthHandler) renderForm(c *gin.Context, status int, page string, content authPage) {
	shell := compose(c, h.composer, layout.Public, content)
	shell.Title = "Log in"
	if page == "register" {
		shell.Title = "Sign up"
	}
	c.HTML(status, page, shell)
}
