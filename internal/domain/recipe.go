package domain

import "time"

// Entities below are owned by the REST backend; the web app only reads them.

type Author struct {
	ID           int64  `json:"user_id"`
	Username     string `json:"username"`
	Fullname     string `json:"fullname"`
	ProfileImage string `json:"profile_image"`
}

type Recipe struct {
	ID          int64      `json:"recipe_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	CookMinutes int        `json:"cook_minutes"`
	Servings    int        `json:"servings"`
	Ingredients []string   `json:"ingredients"`
	Steps       []string   `json:"steps"`
	Tags        []string   `json:"tags"`
	Likes       int        `json:"likes"`
	Bookmarks   int        `json:"bookmarks"`
	LikedByMe   bool       `json:"liked_by_me"`
	Bookmarked  bool       `json:"bookmarked"`
	Author      Author     `json:"author"`
	Comments    []Comment  `json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Comment struct {
	ID        int64     `json:"comment_id"`
	Body      string    `json:"body"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedItem is the trimmed recipe card shown on the feed and profile pages.
type FeedItem struct {
	RecipeID    int64     `json:"recipe_id"`
	Title       string    `json:"title"`
	Image       string    `json:"image"`
	CookMinutes int       `json:"cook_minutes"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Author      Author    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

type Feed struct {
	Items   []FeedItem `json:"items"`
	Page    int        `json:"page"`
	HasMore bool       `json:"has_more"`
}

type Profile struct {
	Author
	Bio       string     `json:"bio"`
	Followers int        `json:"followers"`
	Following int        `json:"following"`
	Recipes   []FeedItem `json:"recipes"`
}

type Notification struct {
	ID        int64     `json:"notification_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	RecipeID  *int64    `json:"recipe_id,omitempty"`
	Actor     Author    `json:"actor"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchHit is a single document returned by the search index.
type SearchHit struct {
	RecipeID int64    `json:"recipe_id"`
	Title    string   `json:"title"`
	Image    string   `json:"image"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags"`
}
