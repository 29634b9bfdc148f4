package main

import (
	"CourseForge/config"
	"CourseForge/internal/mq"
	"CourseForge/internal/repo"
	"CourseForge/internal/service"
	"CourseForge/internal/storage"
	"CourseForge/internal/task"
	"CourseForge/internal/worker"
	"CourseForge/model"
	"CourseForge/utils"
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

// main runs the background side of the coordinator: the visibility sweep,
// the ingestion feeder and the ingestion worker.
func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongo := repo.MustConnectMongo(ctx, cfg)
	rdb := repo.MustConnectRedis(ctx, cfg)
	store := storage.MustConnect(ctx, cfg)

	files := service.NewFileService(store, mongo.Files(), repo.NewRedisLocker(rdb, cfg.LockTTL), cfg)
	files.SetNotifier(func(rec model.FileRecord) {
		if !strings.Contains(rec.UploaderRef, "@") {
			return
		}
		if err := utils.SendPublishedMail(rec.UploaderRef, rec.DisplayName, rec.OwnerScope); err != nil {
			log.Printf("publish mail for %s failed: %v", rec.StorageKey, err)
		}
	})

	go runPublishSweep(ctx, cfg, files)
	go runIngestFeeder(ctx, cfg, mongo.Files())

	log.Println("ingest worker started")
	w := worker.NewIngestWorker(cfg, mongo.Files(), store, worker.LogIndexer{})
	if err := w.Run(ctx); err != nil {
		log.Fatalf("ingest worker stopped: %v", err)
	}
}

// runPublishSweep flips due records public on a fixed interval.
func runPublishSweep(ctx context.Context, cfg *config.Config, files *service.FileService) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := files.PublishDue(ctx)
			if err != nil {
				log.Printf("publish sweep failed: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("publish sweep: %d records published", count)
			}
		}
	}
}

// runIngestFeeder enqueues un-ingested public documents on a fixed
// interval.
func runIngestFeeder(ctx context.Context, cfg *config.Config, records repo.FileRecordStore) {
	ticker := time.NewTicker(cfg.FeedInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client, err := mq.GetPublisher(cfg.RabbitMQURL)
			if err != nil {
				log.Printf("ingest feeder: rabbitmq unavailable: %v", err)
				continue
			}
			if _, err := task.FeedPublicDocuments(ctx, records, client); err != nil {
				log.Printf("ingest feeder failed: %v", err)
			}
		}
	}
}
