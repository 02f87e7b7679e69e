package toolset

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestDirLockSerializes(t *testing.T) {
	lock := NewDirLock(filepath.Join(t.TempDir(), "easytier-linux-x86_64"))

	var running, maxRunning int32
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := lock.Do(context.Background(), func() error {
				current := atomic.AddInt32(&running, 1)
				for {
					highest := atomic.LoadInt32(&maxRunning)
					if current <= highest || atomic.CompareAndSwapInt32(&maxRunning, highest, current) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.Check(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
}

func TestDirLockAcrossHandles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "easytier-linux-x86_64")
	first := NewDirLock(dir)
	second := NewDirLock(dir)

	err := first.Do(context.Background(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		return second.Do(ctx, func() error {
			t.Fatal("second lock acquired while first is held")
			return nil
		})
	})
	assert.ErrorContains(t, err, "acquire lock")
}
