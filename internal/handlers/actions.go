package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"recipeshare/internal/auth"
	"recipeshare/internal/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActionHandler handles the form posts that change backend state. Routes sit behind
// RequirePageSession; every success redirects back to the page the action belongs to.
type ActionHandler struct {
	backend  Backend
	boundary *Boundary
	log      *zap.Logger
}

func NewActionHandler(backend Backend, boundary *Boundary, log *zap.Logger) *ActionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActionHandler{backend: backend, boundary: boundary, log: log}
}

// Bookmark handles POST /recipe/:id/bookmark.
func (h *ActionHandler) Bookmark(c *gin.Context) {
	recipeID, ok := int64Param(c, "id")
	if !ok {
		h.boundary.NotFound(c)
		return
	}
	userID := auth.UserIDFromContext(c)
	back := recipePath(recipeID)
	if err := h.backend.Bookmark(c.Request.Context(), recipeID, userID); err != nil {
		h.fail(c, "bookmark", err, back)
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}

// Like handles POST /recipe/:id/like.
func (h *ActionHandler) Like(c *gin.Context) {
	recipeID, ok := int64Param(c, "id")
	if !ok {
		h.boundary.NotFound(c)
		return
	}
	userID := auth.UserIDFromContext(c)
	back := recipePath(recipeID)
	if err := h.backend.Like(c.Request.Context(), recipeID, userID); err != nil {
		h.fail(c, "like", err, back)
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}

// AddComment handles POST /recipe/:id/comments.
func (h *ActionHandler) AddComment(c *gin.Context) {
	recipeID, ok := int64Param(c, "id")
	if !ok {
		h.boundary.NotFound(c)
		return
	}
	back := recipePath(recipeID)
	var form dto.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		h.boundary.BadRequest(c, bindingMessage(err), back)
		return
	}
	userID := auth.UserIDFromContext(c)
	comment, err := h.backend.AddComment(c.Request.Context(), recipeID, userID, form.Body)
	if err != nil {
		h.fail(c, "add_comment", err, back)
		return
	}
	if comment.ID > 0 {
		back += "#comment-" + strconv.FormatInt(comment.ID, 10)
	}
	c.Redirect(http.StatusSeeOther, back)
}

// DeleteComment handles POST /recipe/:id/comments/:commentId/delete.
func (h *ActionHandler) DeleteComment(c *gin.Context) {
	recipeID, ok := int64Param(c, "id")
	if !ok {
		h.boundary.NotFound(c)
		return
	}
	commentID, ok := int64Param(c, "commentId")
	if !ok {
		h.boundary.NotFound(c)
		return
	}
	userID := auth.UserIDFromContext(c)
	back := recipePath(recipeID)
	if err := h.backend.DeleteComment(c.Request.Context(), recipeID, userID, commentID); err != nil {
		h.fail(c, "delete_comment", err, back)
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}

// Follow handles POST /profile/:username/follow.
func (h *ActionHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	userID := auth.UserIDFromContext(c)
	back := "/profile/" + url.PathEscape(username)
	if err := h.backend.Follow(c.Request.Context(), username, userID); err != nil {
		h.fail(c, "follow", err, back)
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}

// MarkRead handles POST /notifications/:id/read.
func (h *ActionHandler) MarkRead(c *gin.Context) {
	notificationID, ok := int64Param(c, "id")
	if !ok {
		h.boundary.NotFound(c)
		return
	}
	if err := h.backend.MarkNotificationRead(c.Request.Context(), notificationID); err != nil {
		h.fail(c, "mark_read", err, "/notifications")
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications")
}

// MarkAllRead handles POST /notifications/read-all.
func (h *ActionHandler) MarkAllRead(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	if err := h.backend.MarkAllNotificationsRead(c.Request.Context(), userID); err != nil {
		h.fail(c, "mark_all_read", err, "/notifications")
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications")
}

// fail renders the error page; the retry link leads back to the page, not to the POST.
func (h *ActionHandler) fail(c *gin.Context, action string, err error, back string) {
	h.log.Warn("action failed",
		zap.String("action", action),
		zap.Int64("user_id", auth.UserIDFromContext(c)),
		zap.Error(err),
	)
	h.boundary.Fail(c, err, back)
}

func recipePath(id int64) string {
	return "/recipe/" + strconv.FormatInt(id, 10)
}
