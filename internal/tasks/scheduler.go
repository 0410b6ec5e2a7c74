package tasks

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
)

// Job is one analysis to run after the upload response has been sent.
type Job struct {
	EntryID  uint   `json:"entryId"`
	ImageURL string `json:"imageUrl"`
	TaskID   string `json:"taskId"`
}

// Runner executes a job. It owns its own failure handling.
type Runner func(ctx context.Context, job Job)

// Scheduler starts a job without waiting for it to finish.
type Scheduler interface {
	Schedule(ctx context.Context, job Job) error
}

// Detached runs every job in its own goroutine on a context that is not tied
// to any request. Wait lets the server keep the process alive until
// in-flight jobs finish.
type Detached struct {
	run  Runner
	base context.Context
	wg   sync.WaitGroup
}

func NewDetached(run Runner) *Detached {
	return &Detached{run: run, base: context.Background()}
}

// Schedule ignores ctx: the job must outlive the request that scheduled it.
func (d *Detached) Schedule(_ context.Context, job Job) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		RunSafely(d.base, d.run, job)
	}()
	return nil
}

// Wait blocks until all scheduled jobs return or ctx is done.
func (d *Detached) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("detached jobs still running: %w", ctx.Err())
	}
}

// RunSafely calls run and turns a panic into a log line.
func RunSafely(ctx context.Context, run Runner, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("task %s for entry %d panicked: %v\n%s", job.TaskID, job.EntryID, r, debug.Stack())
		}
	}()
	run(ctx, job)
}
