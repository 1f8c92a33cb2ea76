package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockFile_SerializesHolders(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	first, err := lockFile(dbPath)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		acquired time.Time
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		second, err := lockFile(dbPath)
		if err != nil {
			return
		}
		acquired = time.Now()
		unlockFile(second)
	}()

	time.Sleep(50 * time.Millisecond)
	released := time.Now()
	unlockFile(first)
	wg.Wait()

	require.False(t, acquired.IsZero())
	require.False(t, acquired.Before(released))
	unlockFile(nil)
}
