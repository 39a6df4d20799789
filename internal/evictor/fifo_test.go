package evictor

import "testing"

func TestFIFO_AccessDoesNotReorder(t *testing.T) {
	fifo, err := NewFIFO(2)
	if err != nil {
		t.Fatalf("NewFIFO error: %v", err)
	}

	fifo.Set("a")
	fifo.Set("b")
	fifo.Get("a")
	fifo.Set("a") // overwrite keeps insertion position

	evicted, ok := fifo.Set("c")
	if !ok || evicted != "a" {
		t.Fatalf("expected 'a' to be evicted, got %q ok=%v", evicted, ok)
	}

	key, ok := fifo.Evict()
	if !ok || key != "b" {
		t.Fatalf("expected 'b' next, got %q ok=%v", key, ok)
	}
}

func TestFIFO_Delete(t *testing.T) {
	fifo, _ := NewFIFO(0)
	fifo.Set("a")
	fifo.Set("b")
	fifo.Delete("a")

	key, ok := fifo.Evict()
	if !ok || key != "b" {
		t.Fatalf("expected 'b', got %q ok=%v", key, ok)
	}

	if fifo.Len() != 0 {
		t.Fatalf("expected empty ordering, got %d", fifo.Len())
	}
}
