// Package docstore defines the contract consumed from the external document
// database: path-addressed collections, server-assigned timestamps and live
// ordered subscriptions. Implementations live under internal/provider.
package docstore

import (
	"context"
	"strings"
	"time"
)

// Direction orders a subscription's result set by its order-by field.
type Direction int

const (
	Asc Direction = iota
	Desc
)

type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value resolved to the write-time
// server clock by the store, never the client clock.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Document is one stored document: opaque id plus its field map.
type Document struct {
	ID     string
	Fields map[string]any
}

// StringField returns the named field as a string, or "" when absent or of
// another type.
func (d Document) StringField(name string) string {
	s, _ := d.Fields[name].(string)
	return s
}

// TimeField returns the named field as a time.Time, or the zero time when
// absent or of another type.
func (d Document) TimeField(name string) time.Time {
	t, _ := d.Fields[name].(time.Time)
	return t
}

// Store is the document database contract.
//
// Update has create-or-merge semantics: missing documents are created,
// existing ones have the given fields merged in.
type Store interface {
	// Create adds a document with a store-assigned id to the collection at
	// the given path and returns the new id.
	Create(ctx context.Context, collectionPath string, fields map[string]any) (string, error)

	Update(ctx context.Context, docPath string, fields map[string]any) error
	Delete(ctx context.Context, docPath string) error

	// Subscribe opens a live query over the collection ordered by the given
	// field. onSnapshot receives the full current ordered result set
	// immediately and then after every relevant change; each push is an
	// authoritative replacement, never a diff. onError receives terminal
	// subscription failures. The returned func cancels the subscription;
	// after it returns no further callbacks are delivered.
	Subscribe(ctx context.Context, collectionPath, orderBy string, dir Direction,
		onSnapshot func([]Document), onError func(error)) (unsubscribe func(), err error)
}

// SplitDocPath splits a document path ("threads/t1/posts/p2") into its
// collection path ("threads/t1/posts") and document id ("p2").
func SplitDocPath(docPath string) (collectionPath, id string) {
	i := strings.LastIndex(docPath, "/")
	if i < 0 {
		return "", docPath
	}
	return docPath[:i], docPath[i+1:]
}
