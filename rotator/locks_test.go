package rotator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameLocksSerializeSameName(t *testing.T) {
	locks := newNameLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("superbanner")
			defer unlock()
			current := counter
			counter = current + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size(), "released locks should be dropped")
}

func TestNameLocksIndependentNames(t *testing.T) {
	locks := newNameLocks()
	unlockA := locks.lock("a")
	// Would deadlock if names shared a lock.
	unlockB := locks.lock("b")
	assert.Equal(t, 2, locks.size())
	unlockB()
	unlockA()
	assert.Equal(t, 0, locks.size())
}
