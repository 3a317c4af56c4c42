package artifacts

import (
	"context"
	"sync"
)

type listingMemoKey struct{}

type listingMemo struct {
	mu  sync.Mutex
	raw map[string][]RawArtifact
}

// WithListingMemo returns a context under which SharedListing fetches each
// notebook's raw listing at most once.
func WithListingMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(listingMemoKey{}).(*listingMemo); ok {
		return ctx
	}
	return context.WithValue(ctx, listingMemoKey{}, &listingMemo{raw: make(map[string][]RawArtifact)})
}

// SharedListing returns the memoized listing of notebookID, calling fetch on
// a miss. Without a memo in ctx it always calls fetch. Errors are not kept.
func SharedListing(ctx context.Context, notebookID string, fetch func() ([]RawArtifact, error)) ([]RawArtifact, error) {
	m, ok := ctx.Value(listingMemoKey{}).(*listingMemo)
	if !ok {
		return fetch()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if raw, ok := m.raw[notebookID]; ok {
		return append([]RawArtifact(nil), raw...), nil
	}
	raw, err := fetch()
	if err != nil {
		return nil, err
	}
	m.raw[notebookID] = raw
	return append([]RawArtifact(nil), raw...), nil
}
