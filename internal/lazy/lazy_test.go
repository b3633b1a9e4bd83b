package lazy

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestValueComputesOnce(t *testing.T) {
	var calls atomic.Int32
	v := New(func() int {
		calls.Add(1)
		return 42
	})

	if n := calls.Load(); n != 0 {
		t.Fatalf("initializer ran %d times before Get", n)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := v.Get(); got != 42 {
				t.Errorf("Get() = %d, want 42", got)
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("initializer ran %d times, want 1", n)
	}
}

func TestOf(t *testing.T) {
	v := Of("hicolor")
	if got := v.Get(); got != "hicolor" {
		t.Errorf("Get() = %q, want hicolor", got)
	}
}
