package artifact

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := newLRUCache(3)
	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")
	c.Add("d", "4") // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("d")
	assert.True(t, ok)
	assert.Equal(t, "4", v)
	assert.Equal(t, 3, c.Len())
}

func TestLRUCacheGetRefreshesRecency(t *testing.T) {
	c := newLRUCache(2)
	c.Add("a", "1")
	c.Add("b", "2")

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Add("c", "3")
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRUCacheUpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.Add("a", "1")
	c.Add("a", "updated")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "updated", v)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCacheClear(t *testing.T) {
	c := newLRUCache(4)
	for i := 0; i < 4; i++ {
		c.Add(fmt.Sprintf("k%d", i), "v")
	}
	c.Clear()
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("k0")
	assert.False(t, ok)
}

func TestLRUCacheStaysBounded(t *testing.T) {
	c := newLRUCache(bucketCacheSize)
	for i := 0; i < bucketCacheSize*3; i++ {
		c.Add(fmt.Sprintf("res-%d", i), "bucket")
	}
	assert.Equal(t, bucketCacheSize, c.Len())
}
