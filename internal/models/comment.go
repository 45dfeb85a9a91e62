package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ObjectID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CommentID     string             `bson:"comment_id" json:"comment_id"`
	BlogID        string             `bson:"blog_id" json:"blog_id"`
	BlogSlug      string             `bson:"blog_slug" json:"blog_slug"`
	Content       string             `bson:"content" json:"content"`
	Author        AuthorRef          `bson:"author" json:"author"`
	AuthorDetails *User              `bson:"author_details,omitempty" json:"author_details,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// Token is a one-time verification record; the user receives a signed JWT
// whose jti is TokenID.
type Token struct {
	TokenID   string    `bson:"token_id" json:"token_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Purpose   string    `bson:"purpose" json:"purpose"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

type Feedback struct {
	FeedbackID string    `bson:"feedback_id" json:"feedback_id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	Content    string    `bson:"content" json:"content"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

type SystemMessage struct {
	MessageID string    `bson:"message_id" json:"message_id"`
	Message   string    `bson:"message" json:"message"`
	Level     string    `bson:"level" json:"level"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
