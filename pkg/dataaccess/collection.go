package dataaccess

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// SavedCollection is an ordered in-memory sequence backed by a named JSON
// array field on a parent record. The collection is a cache over the record:
// mutations only touch memory, and nothing is durable until the owning
// GuildData saves.
type SavedCollection[T any] struct {
	// key is the record field the collection is stored under.
	key string

	// items is the live sequence.
	items []T

	// load turns a stored element into an item. Defaults to plain JSON
	// decoding.
	load func(json.RawMessage) (T, error)

	// save turns an item back into a stored element. Defaults to plain JSON
	// encoding.
	save func(T) (json.RawMessage, error)

	// retain decides which items survive a save. Nil keeps everything.
	retain func(T) bool
}

// NewSavedCollection creates a collection over the named record field with
// identity transforms.
func NewSavedCollection[T any](key string) *SavedCollection[T] {
	return &SavedCollection[T]{
		key: key,
		load: func(raw json.RawMessage) (T, error) {
			var item T
			err := json.Unmarshal(raw, &item)
			return item, err
		},
		save: func(item T) (json.RawMessage, error) {
			return json.Marshal(item)
		},
	}
}

// WithTransforms replaces the load and save transforms.
func (c *SavedCollection[T]) WithTransforms(load func(json.RawMessage) (T, error), save func(T) (json.RawMessage, error)) *SavedCollection[T] {
	c.load = load
	c.save = save
	return c
}

// WithRetention sets the retention filter applied on save. Items the filter
// rejects stay in memory for the session but are excluded from persistence.
func (c *SavedCollection[T]) WithRetention(retain func(T) bool) *SavedCollection[T] {
	c.retain = retain
	return c
}

// Key returns the record field the collection is stored under.
func (c *SavedCollection[T]) Key() string {
	return c.key
}

// Load rebuilds the sequence from the parent record. A missing field means
// an empty collection.
func (c *SavedCollection[T]) Load(record map[string]json.RawMessage) error {
	c.items = nil

	raw, ok := record[c.key]
	if !ok {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return fmt.Errorf("error decoding field %s: %w", c.key, err)
	}

	c.items = make([]T, 0, len(elems))
	for _, e := range elems {
		item, err := c.load(e)
		if err != nil {
			return fmt.Errorf("error loading element of %s: %w", c.key, err)
		}
		c.items = append(c.items, item)
	}
	return nil
}

// Save serializes the retained items back into the parent record. The field
// is omitted entirely when the collection is empty and the record never had
// it, so that untouched records round-trip unchanged.
func (c *SavedCollection[T]) Save(record map[string]json.RawMessage) error {
	kept := make([]json.RawMessage, 0, len(c.items))
	for _, item := range c.items {
		if c.retain != nil && !c.retain(item) {
			continue
		}
		raw, err := c.save(item)
		if err != nil {
			return fmt.Errorf("error saving element of %s: %w", c.key, err)
		}
		kept = append(kept, raw)
	}

	if len(kept) == 0 {
		if _, ok := record[c.key]; !ok {
			return nil
		}
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("error encoding field %s: %w", c.key, err)
	}
	record[c.key] = raw
	return nil
}

// Find returns the first item matching the predicate.
func (c *SavedCollection[T]) Find(pred func(T) bool) (T, bool) {
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Push appends an item and returns the new length.
func (c *SavedCollection[T]) Push(item T) int {
	c.items = append(c.items, item)
	return len(c.items)
}

// Remove removes the first item structurally equal to the given one. Returns
// false when no item matches.
func (c *SavedCollection[T]) Remove(item T) bool {
	for i, existing := range c.items {
		if reflect.DeepEqual(existing, item) {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Splice removes count items starting at start and returns them. Out of
// range arguments are clamped.
func (c *SavedCollection[T]) Splice(start, count int) []T {
	if start < 0 {
		start = 0
	}
	if start > len(c.items) {
		start = len(c.items)
	}
	if count < 0 {
		count = 0
	}
	if start+count > len(c.items) {
		count = len(c.items) - start
	}

	removed := make([]T, count)
	copy(removed, c.items[start:start+count])
	c.items = append(c.items[:start], c.items[start+count:]...)
	return removed
}

// Len returns the number of items, retained or not.
func (c *SavedCollection[T]) Len() int {
	return len(c.items)
}

// Items returns the live sequence. Callers must not mutate it directly.
func (c *SavedCollection[T]) Items() []T {
	return c.items
}
