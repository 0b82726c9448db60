package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id    string
	label string
}

func (i *item) Key() string { return i.id }

func ids(s *Store[*item]) []string { return s.IDs() }

func TestStoreOrdering(t *testing.T) {
	s := New[*item]()

	t.Run("Insert puts newest at head", func(t *testing.T) {
		require.NoError(t, s.InsertFront(&item{id: "a"}))
		require.NoError(t, s.InsertFront(&item{id: "b"}))
		require.NoError(t, s.InsertFront(&item{id: "c"}))
		assert.Equal(t, []string{"c", "b", "a"}, ids(s))
	})

	t.Run("Replace keeps position", func(t *testing.T) {
		require.NoError(t, s.ReplaceByID("b", &item{id: "b", label: "updated"}))
		assert.Equal(t, []string{"c", "b", "a"}, ids(s))

		got, ok := s.Get("b")
		require.True(t, ok)
		assert.Equal(t, "updated", got.label)
	})

	t.Run("Remove closes the gap", func(t *testing.T) {
		require.NoError(t, s.RemoveByID("b"))
		assert.Equal(t, []string{"c", "a"}, ids(s))
		assert.Equal(t, 2, s.Len())
		assert.False(t, s.Has("b"))

		// Index must follow the shift.
		require.NoError(t, s.ReplaceByID("a", &item{id: "a", label: "x"}))
		got, _ := s.Get("a")
		assert.Equal(t, "x", got.label)
	})

	t.Run("Load replaces everything", func(t *testing.T) {
		s.Load([]*item{{id: "x"}, {id: "y"}})
		assert.Equal(t, []string{"x", "y"}, ids(s))
		assert.False(t, s.Has("c"))
	})
}

func TestStoreErrors(t *testing.T) {
	s := New[*item]()
	require.NoError(t, s.InsertFront(&item{id: "a"}))
	before := s.Version()

	err := s.InsertFront(&item{id: "a"})
	assert.True(t, errors.Is(err, ErrDuplicateID))

	err = s.ReplaceByID("missing", &item{id: "missing"})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.RemoveByID("missing")
	var keyErr *KeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, "remove", keyErr.Op)
	assert.Equal(t, "missing", keyErr.ID)

	assert.Equal(t, before, s.Version(), "failed operations must not bump the version")
	assert.Equal(t, []string{"a"}, ids(s))
}

func TestStoreLoadDropsDuplicates(t *testing.T) {
	s := New[*item]()
	s.Load([]*item{{id: "a", label: "first"}, {id: "b"}, {id: "a", label: "second"}})

	assert.Equal(t, []string{"a", "b"}, ids(s))
	got, _ := s.Get("a")
	assert.Equal(t, "first", got.label)
}

func TestStoreVersionFence(t *testing.T) {
	s := New[*item]()
	v := s.Version()

	require.NoError(t, s.InsertFront(&item{id: "fresh"}))
	applied := s.LoadIfVersion(v, []*item{{id: "stale"}})
	assert.False(t, applied)
	assert.Equal(t, []string{"fresh"}, ids(s))

	applied = s.LoadIfVersion(s.Version(), []*item{{id: "current"}})
	assert.True(t, applied)
	assert.Equal(t, []string{"current"}, ids(s))
}

func TestStoreListIsSnapshot(t *testing.T) {
	s := New[*item]()
	s.Load([]*item{{id: "a"}, {id: "b"}})

	snap := s.List()
	snap[0] = &item{id: "zzz"}
	assert.Equal(t, []string{"a", "b"}, ids(s))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Len(t, snap, 2)
}

func TestStoreConcurrentInserts(t *testing.T) {
	s := New[*item]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.InsertFront(&item{id: fmt.Sprintf("id-%d", n)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	assert.Equal(t, uint64(50), s.Version())
	seen := map[string]bool{}
	for _, id := range s.IDs() {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
