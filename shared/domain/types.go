package domain

type (
	Email    = string
	Password = string

	// Ids are opaque strings assigned by the backing services.
	UserId   = string
	ThreadId = string
	PostId   = string

	ThreadTitle = string
	PostText    = string
)
