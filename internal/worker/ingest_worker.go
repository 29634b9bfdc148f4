package worker

import (
	"CourseForge/config"
	"CourseForge/internal/mq"
	"CourseForge/internal/repo"
	"CourseForge/internal/storage"
	"CourseForge/internal/task"
	"CourseForge/model"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
)

// DocumentIndexer is the boundary to the retrieval pipeline: it receives
// a public document plus a short-lived read URL for its content. The
// pipeline internals (embedding, vector store) live behind it.
type DocumentIndexer interface {
	Index(ctx context.Context, rec model.FileRecord, accessURL string) error
}

// LogIndexer is the stand-in indexer used until a pipeline is attached.
type LogIndexer struct{}

// Index logs the document instead of embedding it.
func (LogIndexer) Index(_ context.Context, rec model.FileRecord, accessURL string) error {
	log.Printf("index document %s (%s, %d bytes) at %s", rec.StorageKey, rec.ContentType, rec.ByteSize, accessURL)
	return nil
}

type dlqMessage struct {
	StorageKey string    `json:"storage_key"`
	Attempt    int       `json:"attempt"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}

// IngestWorker consumes ingestion messages and pushes public documents
// through the indexer.
type IngestWorker struct {
	cfg     *config.Config
	records repo.FileRecordStore
	store   storage.Store
	indexer DocumentIndexer
}

// NewIngestWorker wires a worker from its collaborators.
func NewIngestWorker(cfg *config.Config, records repo.FileRecordStore, store storage.Store, indexer DocumentIndexer) *IngestWorker {
	return &IngestWorker{cfg: cfg, records: records, store: store, indexer: indexer}
}

// Run consumes the ingest queue until ctx is done.
func (w *IngestWorker) Run(ctx context.Context) error {
	client, err := mq.Dial(w.cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := w.cfg.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(
		mq.QueueIngest,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	concurrency := w.cfg.IngestWorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	burst := w.cfg.IngestBurst
	if burst <= 0 {
		burst = 1
	}
	var limiter *rate.Limiter
	if w.cfg.IngestRate <= 0 {
		limiter = rate.NewLimiter(rate.Inf, burst)
	} else {
		limiter = rate.NewLimiter(rate.Limit(w.cfg.IngestRate), burst)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("ingest worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				w.handle(ctx, client, limiter, d)
			}(delivery)
		}
	}
}

func (w *IngestWorker) handle(ctx context.Context, client *mq.Client, limiter *rate.Limiter, delivery amqp.Delivery) {
	var msg task.IngestMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		log.Printf("ingest worker: invalid message: %v", err)
		_ = delivery.Ack(false)
		return
	}
	if err := limiter.Wait(ctx); err != nil {
		_ = delivery.Nack(false, true)
		return
	}

	err := w.ingestOne(ctx, msg.StorageKey)
	if err == nil {
		_ = delivery.Ack(false)
		return
	}
	if errors.Is(err, repo.ErrRecordNotFound) {
		// The record was deleted or renamed between feed and consume.
		log.Printf("ingest worker: %s gone, dropping", msg.StorageKey)
		_ = delivery.Ack(false)
		return
	}

	log.Printf("ingest worker: %s attempt %d failed: %v", msg.StorageKey, msg.Attempt, err)
	msg.Attempt++
	body, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		_ = delivery.Ack(false)
		return
	}
	if msg.Attempt <= w.cfg.IngestRetryMax {
		delay := retryDelay(w.cfg.IngestRetryDelays, msg.Attempt-1)
		if pubErr := client.PublishRetry(ctx, body, delay); pubErr != nil {
			log.Printf("ingest worker: retry publish failed: %v", pubErr)
			_ = delivery.Nack(false, true)
			return
		}
		_ = delivery.Ack(false)
		return
	}
	dead, _ := json.Marshal(dlqMessage{
		StorageKey: msg.StorageKey,
		Attempt:    msg.Attempt,
		Error:      err.Error(),
		FailedAt:   time.Now(),
	})
	if pubErr := client.PublishDLQ(ctx, dead); pubErr != nil {
		log.Printf("ingest worker: dlq publish failed: %v", pubErr)
	}
	_ = delivery.Ack(false)
}

// ingestOne loads the record, hands it to the indexer with a fresh read
// URL and stamps it ingested.
func (w *IngestWorker) ingestOne(ctx context.Context, storageKey string) error {
	callCtx, cancel := context.WithTimeout(ctx, w.cfg.StoreCallTimeout)
	rec, err := w.records.FindByKey(callCtx, storageKey)
	cancel()
	if err != nil {
		return err
	}
	if rec.IngestedAt != nil {
		return nil
	}
	callCtx, cancel = context.WithTimeout(ctx, w.cfg.StoreCallTimeout)
	url, err := w.store.PresignedGetObject(callCtx, w.cfg.BucketName, rec.StorageKey, w.cfg.AccessURLExpiry)
	cancel()
	if err != nil {
		return err
	}
	if err := w.indexer.Index(ctx, *rec, url); err != nil {
		return err
	}
	now := time.Now()
	rec.IngestedAt = &now
	callCtx, cancel = context.WithTimeout(ctx, w.cfg.StoreCallTimeout)
	defer cancel()
	return w.records.Update(callCtx, rec)
}

func retryDelay(delays []time.Duration, attempt int) time.Duration {
	if len(delays) == 0 {
		return time.Minute
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempt]
}
