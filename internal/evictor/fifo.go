package evictor

import (
	"container/list"
	"sync"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// FIFO orders keys by insertion; accesses and overwrites do not change the order.
type FIFO struct {
	capacity int
	queue    *list.List
	items    map[string]*list.Element
	mutex    sync.Mutex
}

// NewFIFO creates a new FIFO ordering bounded to capacity keys. A zero capacity never evicts.
func NewFIFO(capacity int) (*FIFO, error) {
	if capacity < 0 {
		return nil, sentinel.ErrInvalidMaxEntries
	}

	return &FIFO{
		capacity: capacity,
		queue:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}, nil
}

// Get reports whether key is tracked.
func (f *FIFO) Get(key string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	_, ok := f.items[key]

	return ok
}

// Set tracks key at the back of the queue. Known keys keep their position.
func (f *FIFO) Set(key string) (string, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if _, ok := f.items[key]; ok {
		return "", false
	}

	var (
		evicted string
		ok      bool
	)

	if f.capacity > 0 && len(f.items) >= f.capacity {
		evicted, ok = f.popFront()
	}

	f.items[key] = f.queue.PushBack(key)

	return evicted, ok
}

// Evict removes the oldest key and returns it.
func (f *FIFO) Evict() (string, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.popFront()
}

// Delete removes the given key.
func (f *FIFO) Delete(key string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if elem, ok := f.items[key]; ok {
		f.queue.Remove(elem)
		delete(f.items, key)
	}
}

// Len returns the number of tracked keys.
func (f *FIFO) Len() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return len(f.items)
}

func (f *FIFO) popFront() (string, bool) {
	front := f.queue.Front()
	if front == nil {
		return "", false
	}

	key, _ := f.queue.Remove(front).(string)
	delete(f.items, key)

	return key, true
}
