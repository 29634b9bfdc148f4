package service

import (
	"CourseForge/model"
	"context"
	"testing"
	"time"
)

func TestPublishDueFlipsOnlyDueRecords(t *testing.T) {
	svc, _, records := newTestService()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })
	ctx := context.Background()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	seed := []model.FileRecord{
		{StorageKey: "k1", DisplayName: "due.pdf", Visibility: model.VisibilityPrivate, PublishAt: &past},
		{StorageKey: "k2", DisplayName: "early.pdf", Visibility: model.VisibilityPrivate, PublishAt: &future},
		{StorageKey: "k3", DisplayName: "manual.pdf", Visibility: model.VisibilityPrivate},
		{StorageKey: "k4", DisplayName: "done.pdf", Visibility: model.VisibilityPublic, PublishAt: &past},
	}
	for i := range seed {
		if err := records.Insert(ctx, &seed[i]); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	var notified []string
	svc.SetNotifier(func(rec model.FileRecord) {
		notified = append(notified, rec.StorageKey)
	})

	count, err := svc.PublishDue(ctx)
	if err != nil {
		t.Fatalf("PublishDue: %v", err)
	}
	if count != 1 {
		t.Fatalf("published = %d, want 1", count)
	}
	if len(notified) != 1 || notified[0] != "k1" {
		t.Errorf("notified = %v, want [k1]", notified)
	}

	rec, err := records.FindByKey(ctx, "k1")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if rec.Visibility != model.VisibilityPublic {
		t.Errorf("k1 visibility = %q", rec.Visibility)
	}
	for _, key := range []string{"k2", "k3"} {
		rec, err := records.FindByKey(ctx, key)
		if err != nil {
			t.Fatalf("FindByKey(%s): %v", key, err)
		}
		if rec.Visibility != model.VisibilityPrivate {
			t.Errorf("%s visibility = %q, want private", key, rec.Visibility)
		}
	}
}

func TestPublishDueIsIdempotent(t *testing.T) {
	svc, _, records := newTestService()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })
	ctx := context.Background()

	past := now.Add(-time.Minute)
	rec := model.FileRecord{StorageKey: "k1", Visibility: model.VisibilityPrivate, PublishAt: &past}
	if err := records.Insert(ctx, &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if count, err := svc.PublishDue(ctx); err != nil || count != 1 {
		t.Fatalf("first sweep: count = %d, err = %v", count, err)
	}
	if count, err := svc.PublishDue(ctx); err != nil || count != 0 {
		t.Fatalf("second sweep: count = %d, err = %v", count, err)
	}
}

func TestPublishDueContinuesPastSaveFailures(t *testing.T) {
	svc, _, records := newTestService()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })
	ctx := context.Background()

	past := now.Add(-time.Minute)
	rec := model.FileRecord{StorageKey: "k1", Visibility: model.VisibilityPrivate, PublishAt: &past}
	if err := records.Insert(ctx, &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	records.failUpdate = true

	count, err := svc.PublishDue(ctx)
	if err != nil {
		t.Fatalf("PublishDue: %v", err)
	}
	if count != 0 {
		t.Errorf("published = %d, want 0 when saves fail", count)
	}

	records.failUpdate = false
	if count, err := svc.PublishDue(ctx); err != nil || count != 1 {
		t.Fatalf("retry sweep: count = %d, err = %v", count, err)
	}
}
