package handlers

import (
	"errors"
	"net/http"
	"strings"

	"recipeshare/internal/api"
	"recipeshare/internal/identity"
	"recipeshare/internal/layout"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contextKeyViewer = "viewer"

type errorPage struct {
	Status   int
	Message  string
	RetryURL string
}

type notFoundPage struct {
	Path string
}

// Boundary renders the not-found and error pages and recovers from handler panics.
type Boundary struct {
	composer *layout.Composer
	log      *zap.Logger
}

func NewBoundary(composer *layout.Composer, log *zap.Logger) *Boundary {
	if log == nil {
		log = zap.NewNop()
	}
	return &Boundary{composer: composer, log: log}
}

// NotFound is the NoRoute handler. JSON API paths get a JSON body.
func (b *Boundary) NotFound(c *gin.Context) {
	if isAPIRequest(c.Request) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	b.render(c, http.StatusNotFound, "not_found", "Not found", notFoundPage{Path: c.Request.URL.Path})
}

// Fail renders err as a page. Backend 404s become the not-found page; other backend
// errors are 502 and anything else is 500. retry is offered as a "try again" link.
func (b *Boundary) Fail(c *gin.Context, err error, retry string) {
	if api.IsNotFound(err) {
		b.NotFound(c)
		return
	}
	status := http.StatusInternalServerError
	msg := "We could not load this page."
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		status = http.StatusBadGateway
		msg = "The recipe service is not responding right now."
	}
	b.log.Error("page failed",
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	b.render(c, status, "error", "Something went wrong", errorPage{Status: status, Message: msg, RetryURL: retry})
}

// BadRequest renders the error page with a message meant for the user.
func (b *Boundary) BadRequest(c *gin.Context, msg, retry string) {
	b.render(c, http.StatusBadRequest, "error", "Something went wrong",
		errorPage{Status: http.StatusBadRequest, Message: msg, RetryURL: retry})
}

// Recovery renders the error page when a handler panics.
func (b *Boundary) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		b.log.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec),
			zap.Stack("stack"),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		if isAPIRequest(c.Request) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		retry := ""
		if c.Request.Method == http.MethodGet {
			retry = c.Request.URL.RequestURI()
		}
		b.render(c, http.StatusInternalServerError, "error", "Something went wrong",
			errorPage{Status: http.StatusInternalServerError, Message: "Something broke on our side.", RetryURL: retry})
		c.Abort()
	})
}

func (b *Boundary) render(c *gin.Context, status int, page, title string, content any) {
	shell := compose(c, b.composer, layout.Public, content)
	shell.Title = title
	c.HTML(status, page, shell)
}

// compose builds the shell for c. The user is resolved once per request and reused by
// any later shell, such as the error page rendered after a failed prefetch.
func compose(c *gin.Context, composer *layout.Composer, v layout.Variant, content any) layout.Shell {
	if cached, ok := c.Get(contextKeyViewer); ok {
		user, _ := cached.(*identity.UserView)
		return composer.ComposeFor(c.Request, v, user, content)
	}
	shell := composer.Compose(c.Request, v, content)
	c.Set(contextKeyViewer, shell.User)
	return shell
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
