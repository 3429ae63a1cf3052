package prefetch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Boundary serves hydrated query results by key.
type Boundary struct {
	entries map[string]json.RawMessage
}

// Hydrate decodes a snapshot produced by State.Snapshot.
func Hydrate(snap Snapshot) (*Boundary, error) {
	b := &Boundary{entries: make(map[string]json.RawMessage)}
	if len(snap) == 0 {
		return b, nil
	}
	var d dehydrated
	if err := json.Unmarshal(snap, &d); err != nil {
		return nil, fmt.Errorf("prefetch: hydrate: %w", err)
	}
	for _, q := range d.Queries {
		b.entries[q.Key] = q.Data
	}
	return b, nil
}

// Has reports whether key was prefetched.
func (b *Boundary) Has(key string) bool {
	_, ok := b.entries[key]
	return ok
}

// Get decodes the result stored under key into dst. ok is false when key was not prefetched.
func (b *Boundary) Get(key string, dst any) (ok bool, err error) {
	raw, ok := b.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("prefetch: decode %q: %w", key, err)
	}
	return true, nil
}

// Use returns the hydrated result for key, calling fetch only when key was not prefetched.
func Use[T any](ctx context.Context, b *Boundary, key string, fetch FetchFunc[T]) (T, error) {
	var v T
	ok, err := b.Get(key, &v)
	if err != nil {
		return v, err
	}
	if ok {
		return v, nil
	}
	return fetch(ctx)
}
