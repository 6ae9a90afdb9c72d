package domain

import "time"

// Post is a reply belonging to exactly one thread. Posts are never moved
// between threads.
type Post struct {
	Id         PostId    `json:"id"`
	ThreadId   ThreadId  `json:"thread_id"`
	Text       PostText  `json:"text"`
	AuthorId   UserId    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}
