package forum

import (
	"github.com/miniforum-dev/miniforum/shared/docstore"
	"github.com/miniforum-dev/miniforum/shared/domain"
)

// Persisted layout: threads/{tid}, threads/{tid}/posts/{pid}, users/{uid}.
const (
	threadsCollection = "threads"
	usersCollection   = "users"

	fieldTitle       = "title"
	fieldText        = "text"
	fieldAuthorId    = "authorId"
	fieldAuthorName  = "authorName"
	fieldCreatedAt   = "createdAt"
	fieldLastAt      = "lastAt"
	fieldDisplayName = "displayName"
	fieldEmail       = "email"
)

func threadDoc(id domain.ThreadId) string {
	return threadsCollection + "/" + id
}

func postsCollection(threadId domain.ThreadId) string {
	return threadDoc(threadId) + "/posts"
}

func postDoc(threadId domain.ThreadId, id domain.PostId) string {
	return postsCollection(threadId) + "/" + id
}

func userDoc(id domain.UserId) string {
	return usersCollection + "/" + id
}

func threadFromDoc(doc docstore.Document) domain.Thread {
	return domain.Thread{
		Id:         doc.ID,
		Title:      doc.StringField(fieldTitle),
		AuthorId:   doc.StringField(fieldAuthorId),
		AuthorName: doc.StringField(fieldAuthorName),
		CreatedAt:  doc.TimeField(fieldCreatedAt),
		LastAt:     doc.TimeField(fieldLastAt),
	}
}

func postFromDoc(threadId domain.ThreadId, doc docstore.Document) domain.Post {
	return domain.Post{
		Id:         doc.ID,
		ThreadId:   threadId,
		Text:       doc.StringField(fieldText),
		AuthorId:   doc.StringField(fieldAuthorId),
		AuthorName: doc.StringField(fieldAuthorName),
		CreatedAt:  doc.TimeField(fieldCreatedAt),
	}
}
