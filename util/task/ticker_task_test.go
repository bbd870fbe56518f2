package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartRunsImmediately(t *testing.T) {
	var runs int32
	task := NewTickerTaskFromFunc("test", 0, func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	task.Start()

	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestSkipInitialRun(t *testing.T) {
	var runs int32
	task := NewTickerTaskWithOptions(Options{
		Name: "test",
		Runner: funcRunner{run: func() error {
			atomic.AddInt32(&runs, 1)
			return nil
		}},
		SkipInitialRun: true,
	})
	task.Start()

	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}

func TestRecurringRunsUntilStopped(t *testing.T) {
	ran := make(chan struct{}, 10)
	task := NewTickerTaskFromFunc("test", time.Millisecond, func() error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("runner errors do not stop the task")
	})
	task.Start()

	// initial run plus at least one tick
	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(time.Second):
			t.Fatal("task did not run on its interval")
		}
	}

	task.Stop()
	select {
	case <-task.Done():
	default:
		t.Error("Done channel should be closed after Stop")
	}
}
