package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPreservesInsertionOrder(t *testing.T) {
	h := NewHash()
	h.Set("z", "1")
	h.Set("a", "2")
	h.Set("m", "3")

	assert.Equal(t, []string{"z", "a", "m"}, h.Keys())
	assert.Equal(t, []string{"1", "2", "3"}, h.Values())
	assert.Equal(t, []string{"z", "1", "a", "2", "m", "3"}, h.GetAll())
}

func TestHashOrderSurvivesDeleteAndReinsert(t *testing.T) {
	h := NewHash()
	h.Set("a", "1")
	h.Set("b", "2")
	h.Set("c", "3")

	require.True(t, h.Delete("b"))
	assert.Equal(t, []string{"a", "c"}, h.Keys())

	h.Set("b", "20")
	assert.Equal(t, []string{"a", "c", "b"}, h.Keys())
}

func TestHashClonePreservesOrder(t *testing.T) {
	h := NewHash()
	h.Set("first", "1")
	h.Set("second", "2")

	cp := h.Clone()
	assert.Equal(t, h.Keys(), cp.Keys())

	cp.Set("third", "3")
	assert.NotEqual(t, h.Keys(), cp.Keys())
}

func TestListLenAccessorMatchesOperations(t *testing.T) {
	l := NewList()
	assert.Equal(t, 0, l.Len())

	l.PushBack("a")
	l.PushBack("b")
	l.PushFront("z")
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"z", "a", "b"}, l.ToSlice())

	_, ok := l.PopFront()
	require.True(t, ok)
	assert.Equal(t, 2, l.Len())
}

func TestZSetHasTracksMembership(t *testing.T) {
	z := NewZSet()
	assert.False(t, z.Has("a"))

	z.Add("a", 1.5)
	assert.True(t, z.Has("a"))

	z.Remove("a")
	assert.False(t, z.Has("a"))
}

func TestZSetRangeOrderingAfterMerge(t *testing.T) {
	z := NewZSet()
	z.Add("bob", 20)
	z.Add("alice", 10)
	z.Add("carol", 30)

	members := z.RangeByRank(0, -1)
	require.Len(t, members, 3)
	assert.Equal(t, "alice", members[0].Member)
	assert.Equal(t, "bob", members[1].Member)
	assert.Equal(t, "carol", members[2].Member)

	rev := z.RevRangeByRank(0, -1)
	assert.Equal(t, "carol", rev[0].Member)

	cloned := z.Clone()
	assert.Equal(t, z.Len(), cloned.Len())
	cloned.Remove("bob")
	assert.True(t, z.Has("bob"))
	assert.False(t, cloned.Has("bob"))
}

func TestZSetRangeByRankNegativeIndices(t *testing.T) {
	z := NewZSet()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)
	z.Add("d", 4)

	assert.Equal(t, []string{"a", "b", "c", "d"}, memberNames(z.RangeByRank(0, -1)))
	assert.Equal(t, []string{"c", "d"}, memberNames(z.RangeByRank(-2, -1)))
	assert.Equal(t, []string{"b", "c"}, memberNames(z.RangeByRank(1, -2)))
	assert.Nil(t, z.RangeByRank(3, 1))

	assert.Equal(t, 2, z.RemoveRangeByRank(-2, -1))
	assert.Equal(t, 2, z.Len())
}

func memberNames(members []ZSetMember) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Member
	}
	return names
}
