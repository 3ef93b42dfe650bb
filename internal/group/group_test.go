package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByDropsSingletons(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	buckets := By(items, func(i int) int { return i % 3 })
	// 1,4 -> key 1 ; 2,5 -> key 2 ; 3,6 -> key 0
	assert.Len(t, buckets, 3)
	for _, b := range buckets {
		assert.Len(t, b, 2)
	}
}

func TestByEmptyInput(t *testing.T) {
	buckets := By([]string{}, func(s string) string { return s })
	assert.Empty(t, buckets)
}

func TestByAllSingletons(t *testing.T) {
	buckets := By([]int{1, 2, 3}, func(i int) int { return i })
	assert.Empty(t, buckets)
}

func TestByPreservesMembers(t *testing.T) {
	type item struct {
		key string
		val int
	}
	items := []item{{"a", 1}, {"a", 2}, {"b", 3}}
	buckets := By(items, func(i item) string { return i.key })
	require := assert.New(t)
	require.Len(buckets, 1)
	require.Len(buckets[0], 2)
	require.Equal("a", buckets[0][0].key)
}
