package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// fetchRetryDelay spaces out retries after a failed fetch.
var fetchRetryDelay = time.Second

// Kafka hands jobs to a topic; Consume on the other side runs them.
type Kafka struct {
	writer messageWriter
}

func NewKafka(writer *kafka.Writer) *Kafka {
	return &Kafka{writer: writer}
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// Schedule publishes the job keyed by entry id. It returns once the broker
// has acknowledged the message, not when the job has run.
func (k *Kafka) Schedule(ctx context.Context, job Job) error {
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(job.EntryID), 10)),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job for entry %d: %w", job.EntryID, err)
	}
	return nil
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// Consume fetches jobs until ctx is cancelled and runs each one to completion
// before fetching the next. An offset is committed only after its job has
// run, so a job cut off by shutdown or a crash is delivered again.
func Consume(ctx context.Context, reader messageReader, run Runner) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errors.New("job reader closed")
			}
			log.Printf("error fetching job message: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		var job Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			log.Printf("dropping malformed job message at offset %d: %v", msg.Offset, err)
			commit(ctx, reader, msg)
			continue
		}
		RunSafely(context.WithoutCancel(ctx), run, job)
		commit(ctx, reader, msg)
	}
}

// commit outlives ctx: the job it acknowledges has already run.
func commit(ctx context.Context, reader messageReader, msg kafka.Message) {
	if err := reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
		log.Printf("failed to commit job message at offset %d: %v", msg.Offset, err)
	}
}
