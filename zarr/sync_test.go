package zarr_test

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/zarr"
)

func TestThreadSynchronizer_SameKeyIsSameLock(t *testing.T) {
	s := zarr.NewThreadSynchronizer()
	l1 := s.ChunkLock("0.0")
	l2 := s.ChunkLock("0.0")

	l1.Lock()
	locked := make(chan struct{})
	go func() {
		l2.Lock()
		close(locked)
		l2.Unlock()
	}()

	select {
	case <-locked:
		t.Fatal("second lock acquired while first still held")
	default:
	}
	l1.Unlock()
	<-locked
}

func TestThreadSynchronizer_DistinctKeysDoNotContend(t *testing.T) {
	s := zarr.NewThreadSynchronizer()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l := s.ChunkLock(string(rune('a' + i%26)))
			l.Lock()
			l.Unlock()
		}(i)
	}
	wg.Wait()
}

func TestFileSynchronizer_ExclusiveAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s1, err := zarr.NewFileSynchronizer(dir)
	require.NoError(t, err)
	s2, err := zarr.NewFileSynchronizer(dir)
	require.NoError(t, err)

	l1 := s1.ChunkLock("1.2")
	l2 := s2.ChunkLock("1.2")

	l1.Lock()
	acquired := make(chan struct{})
	go func() {
		l2.Lock()
		close(acquired)
		l2.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second process-level lock acquired while first still held")
	default:
	}
	l1.Unlock()
	<-acquired

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
