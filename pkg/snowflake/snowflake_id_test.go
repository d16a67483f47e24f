package snowflake

import (
	"sync"
	"testing"
	"time"
)

func TestNextUnique(t *testing.T) {
	g := MustNew(1)

	const n = 2000
	var mu sync.Mutex
	seen := make(map[int64]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/4; j++ {
				id := g.Next()
				mu.Lock()
				if seen[id] {
					mu.Unlock()
					t.Errorf("duplicate id %d", id)
					return
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("got %d ids, want %d", len(seen), n)
	}
}

func TestIdDatetime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := MustNew(3).Next()
	got := IdDatetime(id)
	if got.Before(before) || got.After(time.Now().Add(time.Second)) {
		t.Fatalf("IdDatetime(%d) = %s, not near now", id, got)
	}
}

func TestNewRejectsBadNode(t *testing.T) {
	if _, err := New(-1); err == nil {
		t.Fatalf("expected error for node -1")
	}
}
