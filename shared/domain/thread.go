package domain

import "time"

// Thread is a top-level discussion topic. AuthorName is a denormalized
// snapshot of the creator's display label at creation time; renaming a
// user does not retroactively update it.
type Thread struct {
	Id         ThreadId    `json:"id"`
	Title      ThreadTitle `json:"title"`
	AuthorId   UserId      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	CreatedAt  time.Time   `json:"created_at"`
	LastAt     time.Time   `json:"last_at"` // bumped whenever a post is added
}
