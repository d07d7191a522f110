package geyser

import (
	"sync"
	"testing"
)

func TestRegistryInsertRemove(t *testing.T) {
	r := newHandleRegistry[string]()
	r.insert(7, "seven")
	if v, ok := r.get(7); !ok || v != "seven" {
		t.Fatalf("get(7) = %q, %v", v, ok)
	}
	if v, ok := r.remove(7); !ok || v != "seven" {
		t.Fatalf("remove(7) = %q, %v", v, ok)
	}
	if _, ok := r.remove(7); ok {
		t.Fatal("second remove should report absent")
	}
	if r.len() != 0 {
		t.Fatalf("len = %d after removal", r.len())
	}
}

func TestRegistryLastWriterWins(t *testing.T) {
	r := newHandleRegistry[int]()
	r.insert(1, 10)
	r.insert(1, 20)
	if r.len() != 1 {
		t.Fatalf("len = %d, want 1", r.len())
	}
	if v, _ := r.get(1); v != 20 {
		t.Fatalf("get(1) = %d, want 20", v)
	}
}

func TestRegistryDrain(t *testing.T) {
	r := newHandleRegistry[int]()
	for i := uint64(0); i < 5; i++ {
		r.insert(i, int(i))
	}
	out := r.drain()
	if len(out) != 5 {
		t.Fatalf("drain returned %d entries", len(out))
	}
	if r.len() != 0 {
		t.Fatal("registry not empty after drain")
	}
	// drained registry stays usable
	r.insert(9, 9)
	if r.len() != 1 {
		t.Fatal("insert after drain failed")
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := newHandleRegistry[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			base := uint64(g) * 1000
			for i := uint64(0); i < 100; i++ {
				r.insert(base+i, g)
			}
			for i := uint64(0); i < 100; i++ {
				if _, ok := r.remove(base + i); !ok {
					t.Errorf("goroutine %d: lost key %d", g, base+i)
				}
			}
		}(g)
	}
	wg.Wait()
	if r.len() != 0 {
		t.Fatalf("len = %d after concurrent removal", r.len())
	}
}
