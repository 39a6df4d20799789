package evictor

// The Least Recently Used (LRU) algorithm discards the least recently used key first.
// Keys live in a doubly linked list with the most recently used key at the head; every access
// moves the key to the head, so the tail is always the next victim.

import (
	"sync"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

// LRU orders keys by recency of access.
type LRU struct {
	capacity int
	items    map[string]*lruNode
	head     *lruNode
	tail     *lruNode
	mutex    sync.Mutex
}

// NewLRU creates a new LRU ordering bounded to capacity keys. A zero capacity never evicts.
func NewLRU(capacity int) (*LRU, error) {
	if capacity < 0 {
		return nil, sentinel.ErrInvalidMaxEntries
	}

	return &LRU{
		capacity: capacity,
		items:    make(map[string]*lruNode, capacity),
	}, nil
}

// Get records an access to key, moving it to the front.
func (lru *LRU) Get(key string) bool {
	lru.mutex.Lock()
	defer lru.mutex.Unlock()

	node, ok := lru.items[key]
	if !ok {
		return false
	}

	lru.moveToFront(node)

	return true
}

// Set tracks key as the most recently used. If the capacity is exceeded the tail is evicted.
func (lru *LRU) Set(key string) (string, bool) {
	lru.mutex.Lock()
	defer lru.mutex.Unlock()

	if node, ok := lru.items[key]; ok {
		lru.moveToFront(node)

		return "", false
	}

	var (
		evicted string
		ok      bool
	)

	if lru.capacity > 0 && len(lru.items) >= lru.capacity {
		evicted, ok = lru.popTail()
	}

	node := &lruNode{key: key}
	lru.items[key] = node
	lru.addToFront(node)

	return evicted, ok
}

// Evict removes the least recently used key and returns it.
func (lru *LRU) Evict() (string, bool) {
	lru.mutex.Lock()
	defer lru.mutex.Unlock()

	return lru.popTail()
}

// Delete removes the given key.
func (lru *LRU) Delete(key string) {
	lru.mutex.Lock()
	defer lru.mutex.Unlock()

	node, ok := lru.items[key]
	if !ok {
		return
	}

	lru.removeFromList(node)
	delete(lru.items, key)
}

// Len returns the number of tracked keys.
func (lru *LRU) Len() int {
	lru.mutex.Lock()
	defer lru.mutex.Unlock()

	return len(lru.items)
}

func (lru *LRU) popTail() (string, bool) {
	if lru.tail == nil {
		return "", false
	}

	key := lru.tail.key
	lru.removeFromList(lru.tail)
	delete(lru.items, key)

	return key, true
}

// moveToFront moves the given node to the front of the list.
func (lru *LRU) moveToFront(node *lruNode) {
	if node == lru.head {
		return
	}

	lru.removeFromList(node)
	lru.addToFront(node)
}

// removeFromList unlinks the given node.
func (lru *LRU) removeFromList(node *lruNode) {
	if node == lru.head {
		lru.head = node.next
	} else {
		node.prev.next = node.next
	}

	if node == lru.tail {
		lru.tail = node.prev
	} else {
		node.next.prev = node.prev
	}

	node.prev = nil
	node.next = nil
}

// addToFront links the given node at the front of the list.
func (lru *LRU) addToFront(node *lruNode) {
	if lru.head == nil {
		lru.head = node
		lru.tail = node

		return
	}

	node.next = lru.head
	lru.head.prev = node
	lru.head = node
}
