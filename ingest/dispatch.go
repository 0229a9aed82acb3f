package ingest

import (
	"runtime"

	"github.com/panjf2000/ants/v2"
)

// Dispatcher schedules ingestion stages. Each stage of a job runs as one
// dispatched task and re-dispatches its successor, so no task ever blocks on
// a whole document.
type Dispatcher interface {
	// Dispatch schedules a task for execution.
	Dispatch(task func()) error

	// Release releases dispatcher resources. Dispatch must not be called
	// after Release.
	Release()
}

// poolDispatcher runs tasks on an ants worker pool.
type poolDispatcher struct {
	pool *ants.Pool
}

var _ Dispatcher = (*poolDispatcher)(nil)

// NewPoolDispatcher creates a Dispatcher backed by a worker pool.
// Size defaults to runtime.NumCPU() / 2, with a minimum of 1.
func NewPoolDispatcher(size int) (Dispatcher, error) {
	if size < 1 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &poolDispatcher{pool: pool}, nil
}

func (d *poolDispatcher) Dispatch(task func()) error {
	return d.pool.Submit(task)
}

func (d *poolDispatcher) Release() {
	d.pool.Release()
}

// syncDispatcher runs tasks inline on the calling goroutine. Used in tests
// and one-shot command runs where asynchrony only gets in the way.
type syncDispatcher struct{}

var _ Dispatcher = (*syncDispatcher)(nil)

// NewSyncDispatcher creates a Dispatcher that runs tasks synchronously.
func NewSyncDispatcher() Dispatcher {
	return &syncDispatcher{}
}

func (d *syncDispatcher) Dispatch(task func()) error {
	task()
	return nil
}

func (d *syncDispatcher) Release() {}
