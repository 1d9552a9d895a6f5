package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Message string
	Height  int
}

func newTestStore() *Store[string, testItem] {
	return New[string, testItem](nil)
}

func TestNew(t *testing.T) {
	s := newTestStore()
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.IDs())
}

func TestStore_Insert(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	assert.True(t, s.Insert("a", testItem{Message: "first"}))
	assert.Equal(t, 1, s.Len())

	// Duplicate id - should be rejected and leave the original untouched
	assert.False(t, s.Insert("a", testItem{Message: "second"}))
	assert.Equal(t, 1, s.Len())
	item, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", item.Message)

	assert.True(t, s.Insert("b", testItem{Message: "third"}))
	assert.Equal(t, []string{"a", "b"}, s.IDs())
}

func TestStore_PreservesInsertionOrder(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	for _, id := range []string{"z", "a", "m", "b"} {
		s.Insert(id, testItem{})
	}
	assert.Equal(t, []string{"z", "a", "m", "b"}, s.IDs())

	s.Remove("a")
	s.Insert("a", testItem{})
	assert.Equal(t, []string{"z", "m", "b", "a"}, s.IDs())
}

func TestStore_Update(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Insert("a", testItem{Message: "hello", Height: 48})

	ok := s.Update("a", func(it *testItem) { it.Height = 64 })
	assert.True(t, ok)

	item, _ := s.Get("a")
	assert.Equal(t, 64, item.Height)
	assert.Equal(t, "hello", item.Message)

	// Unknown id is ignored
	called := false
	ok = s.Update("missing", func(it *testItem) { called = true })
	assert.False(t, ok)
	assert.False(t, called)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Insert("a", testItem{})
	s.Insert("b", testItem{})
	s.Insert("c", testItem{})

	assert.True(t, s.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, s.IDs())
	_, found := s.Get("b")
	assert.False(t, found)

	// Removing twice is a no-op
	assert.False(t, s.Remove("b"))
	assert.Equal(t, 2, s.Len())
}

func TestStore_IDsReturnsCopy(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Insert("a", testItem{})
	ids := s.IDs()
	ids[0] = "mutated"

	assert.Equal(t, []string{"a"}, s.IDs())
}

func TestStore_Each(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Insert("a", testItem{Message: "1"})
	s.Insert("b", testItem{Message: "2"})
	s.Insert("c", testItem{Message: "3"})

	var seen []string
	s.Each(func(id string, it testItem) bool {
		seen = append(seen, id+it.Message)
		return id != "b"
	})
	assert.Equal(t, []string{"a1", "b2"}, seen)
}

func TestStore_Close(t *testing.T) {
	s := newTestStore()
	s.Insert("a", testItem{})

	require.NoError(t, s.Close())
	assert.False(t, s.Insert("b", testItem{}))
	assert.False(t, s.Update("a", func(it *testItem) { it.Height = 1 }))
	assert.False(t, s.Remove("a"))
	assert.NoError(t, s.Close(), "closing twice is safe")
}
