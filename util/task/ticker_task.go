package task

import (
	"time"

	"github.com/golang/glog"
)

type Runner interface {
	Run() error
}

// TickerTask runs a Runner on a fixed interval until stopped. Errors are logged and do not stop the task.
type TickerTask struct {
	name           string
	interval       time.Duration
	runner         Runner
	skipInitialRun bool
	done           chan struct{}
}

func NewTickerTask(name string, interval time.Duration, runner Runner) *TickerTask {
	return NewTickerTaskWithOptions(Options{
		Name:     name,
		Interval: interval,
		Runner:   runner,
	})
}

type Options struct {
	Name           string
	Interval       time.Duration
	Runner         Runner
	SkipInitialRun bool
}

func NewTickerTaskWithOptions(opt Options) *TickerTask {
	return &TickerTask{
		name:           opt.Name,
		interval:       opt.Interval,
		runner:         opt.Runner,
		skipInitialRun: opt.SkipInitialRun,
		done:           make(chan struct{}),
	}
}

// Start runs the task immediately and then schedules the task to run periodically
// if a positive interval has been specified.
func (t *TickerTask) Start() {
	if !t.skipInitialRun {
		t.run()
	}

	if t.interval > 0 {
		go t.runRecurring()
	}
}

// Stop stops the periodic task but the task runner maintains state
func (t *TickerTask) Stop() {
	close(t.done)
}

// Done exports readonly done channel
func (t *TickerTask) Done() <-chan struct{} {
	return t.done
}

func (t *TickerTask) run() {
	if err := t.runner.Run(); err != nil {
		glog.Errorf("Task %s failed: %v", t.name, err)
	}
}

// runRecurring creates a ticker that ticks at the specified interval. On each tick,
// the task is executed
func (t *TickerTask) runRecurring() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.run()
		case <-t.done:
			return
		}
	}
}
