package models

import "time"

const MaxMicropostLength = 140

type Micropost struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedItem is a micropost together with its author.
type FeedItem struct {
	Micropost
	Author Summary `json:"author"`
}
