package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miniforum-dev/miniforum/shared/docstore"
)

type record struct {
	id     string
	fields map[string]any
	seq    int64 // insertion order, breaks ordering ties
}

type subscription struct {
	store   *Docstore
	id      int
	ctx     context.Context
	col     string
	orderBy string
	dir     docstore.Direction
	onSnap  func([]docstore.Document)
	onErr   func(error)

	mu     sync.Mutex
	closed bool
}

// deliver pushes a snapshot unless the subscription was cancelled. The
// per-subscription lock makes "no callback after unsubscribe returns" hold.
func (s *subscription) deliver(docs []docstore.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.ctx.Err() != nil {
		return
	}
	s.onSnap(docs)
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Docstore is an in-memory document store for dev mode and tests. Writes fan
// snapshots out to live subscriptions synchronously on the mutating
// goroutine, which keeps tests deterministic.
type Docstore struct {
	mu      sync.Mutex
	cols    map[string][]*record
	subs    []*subscription
	nextSub int
	nextSeq int64
	lastTS  time.Time
}

var _ docstore.Store = (*Docstore)(nil)

func NewDocstore() *Docstore {
	return &Docstore{cols: make(map[string][]*record)}
}

// serverNow returns a strictly increasing server timestamp so that order-by
// createdAt never produces ties across sequential writes.
func (d *Docstore) serverNow() time.Time {
	now := time.Now().UTC()
	if !now.After(d.lastTS) {
		now = d.lastTS.Add(time.Microsecond)
	}
	d.lastTS = now
	return now
}

func (d *Docstore) resolveFields(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if docstore.IsServerTimestamp(v) {
			// One commit time per write, shared by every sentinel field.
			out[k] = now
		} else {
			out[k] = v
		}
	}
	return out
}

func (d *Docstore) Create(ctx context.Context, collectionPath string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.Lock()
	rec := &record{
		id:     uuid.NewString(),
		fields: d.resolveFields(fields, d.serverNow()),
		seq:    d.nextSeq,
	}
	d.nextSeq++
	d.cols[collectionPath] = append(d.cols[collectionPath], rec)
	notify := d.pendingNotifications(collectionPath)
	d.mu.Unlock()

	runNotifications(notify)
	return rec.id, nil
}

// Update has create-or-merge semantics, like a merge-set against the
// managed backend.
func (d *Docstore) Update(ctx context.Context, docPath string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	col, id := docstore.SplitDocPath(docPath)

	d.mu.Lock()
	now := d.serverNow()
	resolved := d.resolveFields(fields, now)
	var target *record
	for _, rec := range d.cols[col] {
		if rec.id == id {
			target = rec
			break
		}
	}
	if target == nil {
		target = &record{id: id, fields: resolved, seq: d.nextSeq}
		d.nextSeq++
		d.cols[col] = append(d.cols[col], target)
	} else {
		for k, v := range resolved {
			target.fields[k] = v
		}
	}
	notify := d.pendingNotifications(col)
	d.mu.Unlock()

	runNotifications(notify)
	return nil
}

// Delete removes the addressed document only. Sub-collections are left in
// place, matching the managed backend: deleting a thread does not cascade
// to its posts.
func (d *Docstore) Delete(ctx context.Context, docPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	col, id := docstore.SplitDocPath(docPath)

	d.mu.Lock()
	recs := d.cols[col]
	for i, rec := range recs {
		if rec.id == id {
			d.cols[col] = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	notify := d.pendingNotifications(col)
	d.mu.Unlock()

	runNotifications(notify)
	return nil
}

func (d *Docstore) Subscribe(ctx context.Context, collectionPath, orderBy string, dir docstore.Direction,
	onSnapshot func([]docstore.Document), onError func(error)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	sub := &subscription{
		store:   d,
		id:      d.nextSub,
		ctx:     ctx,
		col:     collectionPath,
		orderBy: orderBy,
		dir:     dir,
		onSnap:  onSnapshot,
		onErr:   onError,
	}
	d.nextSub++
	d.subs = append(d.subs, sub)
	snapshot := d.snapshotLocked(sub)
	d.mu.Unlock()

	// Initial push carries the current result set.
	sub.deliver(snapshot)

	unsubscribe := func() {
		sub.close()
		d.mu.Lock()
		for i, other := range d.subs {
			if other == sub {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				break
			}
		}
		d.mu.Unlock()
	}
	return unsubscribe, nil
}

type notification struct {
	sub  *subscription
	docs []docstore.Document
}

// pendingNotifications snapshots every subscription watching the collection.
// Caller holds d.mu; delivery happens after it is released.
func (d *Docstore) pendingNotifications(collectionPath string) []notification {
	var out []notification
	for _, sub := range d.subs {
		if sub.col == collectionPath {
			out = append(out, notification{sub: sub, docs: d.snapshotLocked(sub)})
		}
	}
	return out
}

func runNotifications(notify []notification) {
	for _, n := range notify {
		n.sub.deliver(n.docs)
	}
}

func (d *Docstore) snapshotLocked(sub *subscription) []docstore.Document {
	recs := d.cols[sub.col]
	docs := make([]docstore.Document, 0, len(recs))
	for _, rec := range recs {
		fields := make(map[string]any, len(rec.fields))
		for k, v := range rec.fields {
			fields[k] = v
		}
		docs = append(docs, docstore.Document{ID: rec.id, Fields: fields})
	}

	seqs := make(map[string]int64, len(recs))
	for _, rec := range recs {
		seqs[rec.id] = rec.seq
	}
	sort.SliceStable(docs, func(i, j int) bool {
		less := fieldLess(docs[i].Fields[sub.orderBy], docs[j].Fields[sub.orderBy], seqs[docs[i].ID], seqs[docs[j].ID])
		if sub.dir == docstore.Desc {
			return !less
		}
		return less
	})
	return docs
}

func fieldLess(a, b any, seqA, seqB int64) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			if !av.Equal(bv) {
				return av.Before(bv)
			}
			return seqA < seqB
		}
	case string:
		if bv, ok := b.(string); ok {
			if av != bv {
				return av < bv
			}
			return seqA < seqB
		}
	case int64:
		if bv, ok := b.(int64); ok {
			if av != bv {
				return av < bv
			}
			return seqA < seqB
		}
	case float64:
		if bv, ok := b.(float64); ok {
			if av != bv {
				return av < bv
			}
			return seqA < seqB
		}
	}
	return seqA < seqB
}
