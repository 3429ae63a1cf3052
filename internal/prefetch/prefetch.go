// Package prefetch runs page queries on the server and hands their results to the
// rendered page as a JSON snapshot, so the page and its scripts start from the same data
// without fetching it again.
package prefetch

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// FetchFunc loads the data of one query.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is the query cache of a single render. It is not safe for concurrent use.
type State struct {
	order   []string
	entries map[string]json.RawMessage
}

func NewState() *State {
	return &State{entries: make(map[string]json.RawMessage)}
}

// Prefetch runs fetch once and stores its result under key. A fetch error is returned
// as is; nothing is stored for key in that case.
func Prefetch[T any](ctx context.Context, s *State, key string, fetch FetchFunc[T]) error {
	v, err := fetch(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("prefetch %q: encode: %w", key, err)
	}
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = b
	return nil
}

// Len returns the number of stored queries.
func (s *State) Len() int { return len(s.entries) }

// Snapshot serializes every stored query, in prefetch order.
func (s *State) Snapshot() (Snapshot, error) {
	d := dehydrated{Queries: make([]dehydratedQuery, 0, len(s.order))}
	for _, k := range s.order {
		d.Queries = append(d.Queries, dehydratedQuery{Key: k, Data: s.entries[k]})
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("prefetch: snapshot: %w", err)
	}
	return Snapshot(b), nil
}

// Query prefetches a single query into a fresh state and returns its snapshot.
func Query[T any](ctx context.Context, key string, fetch FetchFunc[T]) (Snapshot, error) {
	s := NewState()
	if err := Prefetch(ctx, s, key, fetch); err != nil {
		return nil, err
	}
	return s.Snapshot()
}

// Snapshot is the wire form of a State: {"queries":[{"key":...,"data":...}]}.
type Snapshot []byte

// JS returns the snapshot for embedding in a <script type="application/json"> element.
// encoding/json escapes <, > and &, so the payload cannot close the element.
func (s Snapshot) JS() template.JS {
	if len(s) == 0 {
		return template.JS(`{"queries":[]}`)
	}
	return template.JS(s)
}

type dehydrated struct {
	Queries []dehydratedQuery `json:"queries"`
}

type dehydratedQuery struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// Key joins key parts with ":" ("recipe", "42" -> "recipe:42").
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Family returns the first part of a key, used as a low-cardinality label.
func Family(key string) string {
	family, _, _ := strings.Cut(key, ":")
	return family
}
