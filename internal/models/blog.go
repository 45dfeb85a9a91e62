package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	BlogsCollection          = "BLOGS"
	CommentsCollection       = "COMMENTS"
	UsersCollection          = "USERS"
	TokensCollection         = "TOKENS"
	FeedbackCollection       = "FEEDBACK"
	SystemMessagesCollection = "SYSTEM_MESSAGES"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	DefaultCategory = "general"
)

// AuthorRef is the denormalized author stored on blogs and comments.
type AuthorRef struct {
	UserID    string `bson:"user_id" json:"user_id"`
	Name      string `bson:"name" json:"name"`
	AvatarURL string `bson:"avatar_url" json:"avatar_url"`
	IsAdmin   bool   `bson:"is_admin,omitempty" json:"is_admin,omitempty"`
	IsBot     bool   `bson:"is_bot,omitempty" json:"is_bot,omitempty"`
}

type Blog struct {
	ObjectID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	BlogID        string             `bson:"blog_id" json:"blog_id"`
	Title         string             `bson:"title" json:"title"`
	Summary       string             `bson:"summary" json:"summary"`
	Slug          string             `bson:"slug" json:"slug"`
	Tags          []string           `bson:"tags" json:"tags"`
	Category      string             `bson:"category" json:"category"`
	Visibility    string             `bson:"visibility" json:"visibility"`
	Featured      bool               `bson:"featured" json:"featured"`
	CoverURL      string             `bson:"cover_url" json:"cover_url"`
	ReadTime      int                `bson:"read_time" json:"read_time"`
	Views         int64              `bson:"views" json:"views"`
	Likes         int64              `bson:"likes" json:"likes"`
	CommentsCount int64              `bson:"comments_count" json:"comments_count"`
	Content       string             `bson:"content" json:"content"`
	Author        AuthorRef          `bson:"author" json:"author"`
	AuthorDetails *User              `bson:"author_details,omitempty" json:"author_details,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsPublic reports whether anonymous readers may see the blog.
func (b *Blog) IsPublic() bool { return b.Visibility == VisibilityPublic }

// BlogSummary is the projection returned by quick search.
type BlogSummary struct {
	BlogID   string `bson:"blog_id" json:"blog_id"`
	Title    string `bson:"title" json:"title"`
	Slug     string `bson:"slug" json:"slug"`
	Summary  string `bson:"summary" json:"summary"`
	CoverURL string `bson:"cover_url" json:"cover_url"`
}

// CategoryGroup is one bucket of the faceted search result.
type CategoryGroup struct {
	Category     string  `bson:"category" json:"category"`
	AverageViews float64 `bson:"averageViews" json:"averageViews"`
	TotalBlogs   int     `bson:"totalBlogs" json:"totalBlogs"`
	Blogs        []Blog  `bson:"blogs" json:"blogs"`
}

// CategoryStats feeds the admin dashboard.
type CategoryStats struct {
	Category     string  `bson:"category" json:"category"`
	TotalBlogs   int     `bson:"totalBlogs" json:"totalBlogs"`
	AverageViews float64 `bson:"averageViews" json:"averageViews"`
	TotalLikes   int64   `bson:"totalLikes" json:"totalLikes"`
}
