package task

import (
	"CourseForge/internal/mq"
	"CourseForge/internal/repo"
	"CourseForge/model"
	"context"
	"encoding/json"
	"log"
)

// IngestMessage is the payload handed to the ingestion worker.
type IngestMessage struct {
	StorageKey string `json:"storage_key"`
	Attempt    int    `json:"attempt"`
}

// FeedPublicDocuments finds public PDF records that have not been
// ingested yet and enqueues one message per record for the retrieval
// pipeline. Returns how many were enqueued. Safe to run repeatedly: the
// worker stamps ingested_at, which drops a record out of this query.
func FeedPublicDocuments(ctx context.Context, records repo.FileRecordStore, client *mq.Client) (int, error) {
	due, err := records.Find(ctx, repo.FileRecordFilter{
		Visibility:  model.VisibilityPublic,
		ContentType: "application/pdf",
		NotIngested: true,
	})
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, rec := range due {
		body, err := json.Marshal(IngestMessage{StorageKey: rec.StorageKey})
		if err != nil {
			return enqueued, err
		}
		if err := client.PublishIngest(ctx, body); err != nil {
			return enqueued, err
		}
		enqueued++
	}
	if enqueued > 0 {
		log.Printf("ingest feeder: enqueued %d documents", enqueued)
	}
	return enqueued, nil
}
