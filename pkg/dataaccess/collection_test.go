package dataaccess

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSavedCollectionLoadSave(t *testing.T) {
	record := map[string]json.RawMessage{
		"nums": json.RawMessage(`[1,2,3]`),
	}

	c := NewSavedCollection[int]("nums")
	require.NoError(t, c.Load(record))
	require.Equal(t, []int{1, 2, 3}, c.Items())

	c.Push(4)
	require.NoError(t, c.Save(record))
	require.JSONEq(t, `[1,2,3,4]`, string(record["nums"]))
}

func TestSavedCollectionMissingField(t *testing.T) {
	c := NewSavedCollection[int]("nums")
	require.NoError(t, c.Load(map[string]json.RawMessage{}))
	require.Zero(t, c.Len())
}

func TestSavedCollectionOmitsEmptyField(t *testing.T) {
	record := map[string]json.RawMessage{}

	// An empty collection never introduces its field; untouched records
	// round-trip unchanged.
	c := NewSavedCollection[int]("nums")
	require.NoError(t, c.Save(record))
	_, ok := record["nums"]
	require.False(t, ok)

	// A record that already had the field keeps it as an empty array.
	record["nums"] = json.RawMessage(`[1]`)
	require.NoError(t, c.Load(record))
	c.Splice(0, c.Len())
	require.NoError(t, c.Save(record))
	require.JSONEq(t, `[]`, string(record["nums"]))
}

func TestSavedCollectionFind(t *testing.T) {
	c := NewSavedCollection[string]("xs")
	c.Push("a")
	c.Push("b")

	got, ok := c.Find(func(s string) bool { return s == "b" })
	require.True(t, ok)
	require.Equal(t, "b", got)

	_, ok = c.Find(func(s string) bool { return s == "z" })
	require.False(t, ok)
}

func TestSavedCollectionRemove(t *testing.T) {
	c := NewSavedCollection[string]("xs")
	c.Push("a")
	c.Push("b")
	c.Push("a")

	// Only the first structural match goes.
	require.True(t, c.Remove("a"))
	require.Equal(t, []string{"b", "a"}, c.Items())
	require.False(t, c.Remove("z"))
}

func TestSavedCollectionSplice(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		count   int
		removed []int
		left    []int
	}{
		{
			name:    "middle",
			start:   1,
			count:   2,
			removed: []int{2, 3},
			left:    []int{1, 4},
		},
		{
			name:    "count clamped",
			start:   2,
			count:   99,
			removed: []int{3, 4},
			left:    []int{1, 2},
		},
		{
			name:    "negative start clamped",
			start:   -5,
			count:   1,
			removed: []int{1},
			left:    []int{2, 3, 4},
		},
		{
			name:    "start beyond end",
			start:   99,
			count:   1,
			removed: []int{},
			left:    []int{1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSavedCollection[int]("xs")
			for i := 1; i <= 4; i++ {
				c.Push(i)
			}

			require.Equal(t, tt.removed, c.Splice(tt.start, tt.count))
			require.Equal(t, tt.left, c.Items())
		})
	}
}

func TestSavedCollectionRetention(t *testing.T) {
	c := NewSavedCollection[int]("xs").
		WithRetention(func(v int) bool { return v%2 == 0 })
	c.Push(1)
	c.Push(2)
	c.Push(3)

	record := map[string]json.RawMessage{"xs": json.RawMessage(`[]`)}
	require.NoError(t, c.Save(record))
	require.JSONEq(t, `[2]`, string(record["xs"]))

	// Rejected items stay live in memory.
	require.Equal(t, 3, c.Len())
}
