package slides

import (
	"github.com/dgallion1/slidegest/internal/cache"
)

// CacheKey identifies one extraction. Version is the content version of
// the tree the slides were taken from.
type CacheKey struct {
	Course  string
	Start   string
	End     string
	Version string
}

// Cache memoizes extraction results.
type Cache struct {
	store cache.Store[CacheKey, []Slide]
}

func NewCache(store cache.Store[CacheKey, []Slide]) *Cache {
	return &Cache{store: store}
}

// Get returns a copy of the slides stored under key.
func (c *Cache) Get(key CacheKey) ([]Slide, bool) {
	list, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return clone(list), true
}

func (c *Cache) Put(key CacheKey, list []Slide) {
	c.store.Put(key, clone(list))
}
