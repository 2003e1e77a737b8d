package call

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()

	var mu sync.Mutex
	counters := map[string]int{}
	inFlight := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				unlock := km.Lock(key)
				defer unlock()

				mu.Lock()
				inFlight[key]++
				if inFlight[key] != 1 {
					t.Errorf("key %q held by %d goroutines at once", key, inFlight[key])
				}
				counters[key]++
				inFlight[key]--
				mu.Unlock()
			}(key)
		}
	}
	wg.Wait()

	if counters["a"] != 50 || counters["b"] != 50 {
		t.Fatalf("counters = %v, want 50 each", counters)
	}
	if len(km.locks) != 0 {
		t.Fatalf("lock table not drained: %d entries", len(km.locks))
	}
}
