// Package firestore implements the document store contract on Cloud
// Firestore. Subscriptions map to snapshot listeners; the server timestamp
// sentinel maps to firestore.ServerTimestamp.
package firestore

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miniforum-dev/miniforum/shared/docstore"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
)

type Store struct {
	client *firestore.Client
}

var _ docstore.Store = (*Store)(nil)

// New connects to the project's Firestore database. credentialsFile may be
// empty, in which case application default credentials apply (and the
// emulator, when FIRESTORE_EMULATOR_HOST is set).
func New(ctx context.Context, projectId, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectId, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Create(ctx context.Context, collectionPath string, fields map[string]any) (string, error) {
	doc := s.client.Collection(collectionPath).NewDoc()
	if _, err := doc.Create(ctx, resolveFields(fields)); err != nil {
		return "", wrapErr(err)
	}
	return doc.ID, nil
}

// Update is a merge-set: missing documents are created, existing ones get
// the given fields merged in.
func (s *Store) Update(ctx context.Context, docPath string, fields map[string]any) error {
	_, err := s.client.Doc(docPath).Set(ctx, resolveFields(fields), firestore.MergeAll)
	return wrapErr(err)
}

// Delete removes the addressed document only; sub-collections stay, that is
// how Firestore behaves.
func (s *Store) Delete(ctx context.Context, docPath string) error {
	_, err := s.client.Doc(docPath).Delete(ctx)
	return wrapErr(err)
}

func (s *Store) Subscribe(ctx context.Context, collectionPath, orderBy string, dir docstore.Direction,
	onSnapshot func([]docstore.Document), onError func(error)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	direction := firestore.Asc
	if dir == docstore.Desc {
		direction = firestore.Desc
	}
	subCtx, cancel := context.WithCancel(ctx)
	iter := s.client.Collection(collectionPath).OrderBy(orderBy, direction).Snapshots(subCtx)

	sub := &subscription{onSnap: onSnapshot, onErr: onError}
	go sub.run(iter)

	return func() {
		sub.close()
		cancel()
		iter.Stop()
	}, nil
}

type subscription struct {
	onSnap func([]docstore.Document)
	onErr  func(error)

	mu     sync.Mutex
	closed bool
}

// run pumps snapshots until the listener stops. The per-subscription lock
// makes "no callback after unsubscribe returns" hold.
func (s *subscription) run(iter *firestore.QuerySnapshotIterator) {
	for {
		snap, err := iter.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled {
				return
			}
			s.deliverErr(wrapErr(err))
			return
		}

		docs, err := collectDocs(snap)
		if err != nil {
			s.deliverErr(wrapErr(err))
			return
		}
		s.deliver(docs)
	}
}

func (s *subscription) deliver(docs []docstore.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onSnap(docs)
}

func (s *subscription) deliverErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onErr(err)
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func collectDocs(snap *firestore.QuerySnapshot) ([]docstore.Document, error) {
	var docs []docstore.Document
	for {
		doc, err := snap.Documents.Next()
		if err == iterator.Done {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{ID: doc.Ref.ID, Fields: doc.Data()})
	}
}

// resolveFields swaps the store-agnostic sentinel for the Firestore one.
func resolveFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if docstore.IsServerTimestamp(v) {
			out[k] = firestore.ServerTimestamp
		} else {
			out[k] = v
		}
	}
	return out
}

// wrapErr turns a gRPC status error into a provider error whose code reads
// like the client SDK's ("firestore/permission-denied").
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	code := "firestore/" + statusCodeSlug(st.Code())
	return &internal_errors.ProviderError{Code: code, Message: st.Message()}
}

func statusCodeSlug(c codes.Code) string {
	switch c {
	case codes.PermissionDenied:
		return "permission-denied"
	case codes.NotFound:
		return "not-found"
	case codes.AlreadyExists:
		return "already-exists"
	case codes.Unauthenticated:
		return "unauthenticated"
	case codes.Unavailable:
		return "unavailable"
	case codes.DeadlineExceeded:
		return "deadline-exceeded"
	case codes.ResourceExhausted:
		return "resource-exhausted"
	case codes.FailedPrecondition:
		return "failed-precondition"
	case codes.Aborted:
		return "aborted"
	case codes.InvalidArgument:
		return "invalid-argument"
	default:
		return "internal"
	}
}
