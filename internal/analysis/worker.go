package analysis

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime/debug"

	"github.com/fedor-resh/bite/internal/apperr"
	"github.com/fedor-resh/bite/internal/inference"
	"github.com/fedor-resh/bite/internal/models"
	"github.com/fedor-resh/bite/internal/tasks"
)

// EntryUpdater writes the single terminal transition of an entry.
type EntryUpdater interface {
	Complete(ctx context.Context, id uint, a models.Analysis) error
	MarkError(ctx context.Context, id uint) error
}

// Worker turns one uploaded photo into a completed or errored entry.
type Worker struct {
	client  inference.Client
	entries EntryUpdater
}

func NewWorker(client inference.Client, entries EntryUpdater) *Worker {
	return &Worker{client: client, entries: entries}
}

// Run never returns an error and never lets a panic escape. Every failure ends
// in one MarkError attempt; if that also fails the entry stays pending.
func (w *Worker) Run(ctx context.Context, job tasks.Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analysis of entry %d panicked: %v\n%s", job.EntryID, r, debug.Stack())
			w.fail(ctx, job, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := w.analyze(ctx, job); err != nil {
		w.fail(ctx, job, err)
		return
	}
	log.Printf("entry %d analyzed", job.EntryID)
}

func (w *Worker) analyze(ctx context.Context, job tasks.Job) error {
	raw, err := w.client.Analyze(ctx, job.ImageURL)
	if err != nil {
		return apperr.Analysis(err)
	}

	res, err := Parse(raw)
	if err != nil {
		return err
	}

	if err := w.entries.Complete(ctx, job.EntryID, res.toModel()); err != nil {
		return fmt.Errorf("failed to complete entry: %w", err)
	}
	return nil
}

func (w *Worker) fail(ctx context.Context, job tasks.Job, cause error) {
	log.Printf("analysis of entry %d failed: %v", job.EntryID, cause)
	if err := w.entries.MarkError(ctx, job.EntryID); err != nil {
		log.Printf("failed to mark entry %d as error, left pending: %v", job.EntryID, err)
	}
}

func (r Result) toModel() models.Analysis {
	return models.Analysis{
		Name:      r.Name,
		KCalories: round(r.Calories),
		Protein:   round(r.Protein),
		Value:     round(r.Weight),
	}
}

func round(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}
