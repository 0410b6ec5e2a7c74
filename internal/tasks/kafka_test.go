package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

type fakeReader struct {
	msgs      []kafka.Message
	fetchErrs []error
	cancel    context.CancelFunc
	fetches   int
	events    *[]string
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.fetches++
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if len(f.msgs) == 0 {
		f.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		*f.events = append(*f.events, fmt.Sprintf("commit %d", m.Offset))
	}
	return nil
}

func TestKafka_SchedulePublishesJob(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w}

	job := Job{EntryID: 42, ImageURL: "http://img/42.jpg", TaskID: "t-1"}
	if err := k.Schedule(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "42" {
		t.Fatalf("unexpected key %q", w.msgs[0].Key)
	}

	var got Job
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatal(err)
	}
	if got != job {
		t.Fatalf("expected %+v, got %+v", job, got)
	}
}

func TestKafka_ScheduleError(t *testing.T) {
	k := &Kafka{writer: &fakeWriter{err: errors.New("broker down")}}
	if err := k.Schedule(context.Background(), Job{EntryID: 1}); err == nil {
		t.Fatal("expected error")
	}
}

func TestConsume_CommitsAfterJobRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events []string
	good, _ := json.Marshal(Job{EntryID: 7, ImageURL: "http://img/7.jpg"})
	reader := &fakeReader{
		msgs:   []kafka.Message{{Offset: 1, Value: []byte("{not json")}, {Offset: 2, Value: good}},
		cancel: cancel,
		events: &events,
	}

	err := Consume(ctx, reader, func(ctx context.Context, job Job) {
		events = append(events, fmt.Sprintf("run %d", job.EntryID))
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"commit 1", "run 7", "commit 2"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestConsume_BacksOffOnFetchError(t *testing.T) {
	old := fetchRetryDelay
	fetchRetryDelay = time.Millisecond
	defer func() { fetchRetryDelay = old }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events []string
	broker := errors.New("broker unavailable")
	reader := &fakeReader{fetchErrs: []error{broker, broker}, cancel: cancel, events: &events}

	if err := Consume(ctx, reader, func(context.Context, Job) {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.fetches != 3 {
		t.Errorf("fetches = %d, want 3", reader.fetches)
	}
}

func TestConsume_BackoffStopsOnCancel(t *testing.T) {
	old := fetchRetryDelay
	fetchRetryDelay = time.Hour
	defer func() { fetchRetryDelay = old }()

	ctx, cancel := context.WithCancel(context.Background())
	var events []string
	reader := &fakeReader{fetchErrs: []error{errors.New("broker unavailable")}, cancel: cancel, events: &events}

	done := make(chan error, 1)
	go func() { done <- Consume(ctx, reader, func(context.Context, Job) {}) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Consume kept sleeping after cancel")
	}
}
