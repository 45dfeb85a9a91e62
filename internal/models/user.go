package models

import "time"

// User is keyed by the identity provider's subject id.
type User struct {
	UserID               string    `bson:"user_id" json:"user_id"`
	Provider             string    `bson:"provider" json:"provider"`
	Username             string    `bson:"username" json:"username"`
	Name                 string    `bson:"name" json:"name"`
	AvatarURL            string    `bson:"avatar_url" json:"avatar_url"`
	Email                string    `bson:"email,omitempty" json:"email,omitempty"`
	IsAdmin              bool      `bson:"is_admin" json:"is_admin"`
	IsBlocked            bool      `bson:"is_blocked" json:"is_blocked"`
	NewsletterSubscribed bool      `bson:"newsletter_subscribed" json:"newsletter_subscribed"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
	LastLogin            time.Time `bson:"last_login" json:"last_login"`
}
