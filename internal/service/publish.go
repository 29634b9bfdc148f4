package service

import (
	"CourseForge/internal/repo"
	"CourseForge/model"
	"context"
	"log"
)

// PublishDue flips every record whose publish time has passed from
// private to public. Idempotent: already-public records are excluded by
// the query, so repeated sweeps are no-ops, and a failed run is simply
// caught up by the next one. No blob interaction, no lock held across
// the scan.
func (s *FileService) PublishDue(ctx context.Context) (int, error) {
	now := s.now()
	findCtx, cancel := s.callCtx(ctx)
	due, err := s.records.Find(findCtx, repo.FileRecordFilter{
		NotVisibility: model.VisibilityPublic,
		DueBefore:     &now,
	})
	cancel()
	if err != nil {
		return 0, storeErr("query due records", err, false)
	}

	published := 0
	for i := range due {
		rec := &due[i]
		rec.Visibility = model.VisibilityPublic
		saveCtx, cancel := s.callCtx(ctx)
		err := s.records.Update(saveCtx, rec)
		cancel()
		if err != nil {
			// Next sweep retries; publishing is idempotent.
			log.Printf("publish sweep: save %s failed: %v", rec.StorageKey, err)
			continue
		}
		published++
		if s.notify != nil {
			s.notify(*rec)
		}
	}
	return published, nil
}
