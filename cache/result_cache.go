package cache

import (
	"container/list"
	"sync"

	"github.com/cloudfoundry/bosh-multidigest/checksum"
)

const DefaultMaxEntries = 1000

type Entry struct {
	Result checksum.Result
	Stamp  checksum.FileStamp
}

type ResultCache interface {
	Get(Key) (Entry, bool)
	Put(Key, Entry)
	Len() int
	Capacity() int
	Clear()
}

// fifoResultCache evicts by insertion order, not by use. It is meant to stop
// a batch from re-hashing what it just hashed, not to model locality.
type fifoResultCache struct {
	mu         sync.RWMutex
	maxEntries int
	entries    map[Key]*list.Element
	order      *list.List
}

type cacheItem struct {
	key   Key
	entry Entry
}

func NewResultCache(maxEntries int) ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &fifoResultCache{
		maxEntries: maxEntries,
		entries:    map[Key]*list.Element{},
		order:      list.New(),
	}
}

func (c *fifoResultCache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	element, found := c.entries[key]
	if !found {
		return Entry{}, false
	}

	entry := element.Value.(*cacheItem).entry
	return Entry{Result: entry.Result.Copy(), Stamp: entry.Stamp}, true
}

// Put replaces the value of an existing key in place; only new keys count
// as insertions for eviction order.
func (c *fifoResultCache) Put(key Key, entry Entry) {
	entry = Entry{Result: entry.Result.Copy(), Stamp: entry.Stamp}

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.entries[key]; found {
		element.Value = &cacheItem{key: key, entry: entry}
		return
	}

	c.entries[key] = c.order.PushBack(&cacheItem{key: key, entry: entry})

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).key)
	}
}

func (c *fifoResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

func (c *fifoResultCache) Capacity() int {
	return c.maxEntries
}

func (c *fifoResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[Key]*list.Element{}
	c.order.Init()
}
