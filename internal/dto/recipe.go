package dto

// CommentForm is the body of POST /recipe/:id/comments.
type CommentForm struct {
	Body string `form:"comment" binding:"required,max=1000"`
}
