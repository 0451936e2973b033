package models

import "time"

// Relationship is a directed follow edge: FollowerID follows FollowedID.
type Relationship struct {
	ID         int64     `json:"id"`
	FollowerID string    `json:"follower_id"`
	FollowedID string    `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}
