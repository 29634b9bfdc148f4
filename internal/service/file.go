package service

import (
	"CourseForge/config"
	"CourseForge/internal/repo"
	"CourseForge/internal/storage"
	"CourseForge/model"
	"context"
	"errors"
	"io"
	"log"
	"path"
	"strings"
	"time"
)

// Principal identifies the caller for the one access-control decision the
// coordinator makes itself: unprivileged callers never see private
// metadata. Authentication proper lives outside.
type Principal struct {
	Subject string
	Role    string
}

const (
	RoleStaff   = "staff"
	RoleStudent = "student"
)

// FileService keeps the object store and the metadata store in lockstep
// for every file operation. It is the sole writer of both stores; the
// multi-step operations are serialized per storage key through the
// injected Locker. Consistency is best effort: partial failures surface
// to the caller with the StateChanged flag instead of being rolled back.
type FileService struct {
	store   storage.Store
	records repo.FileRecordStore
	locks   Locker
	urls    *repo.URLCache

	bucket      string
	urlExpiry   time.Duration
	callTimeout time.Duration

	now    func() time.Time
	notify func(model.FileRecord)
}

// NewFileService wires the coordinator from its collaborators.
func NewFileService(store storage.Store, records repo.FileRecordStore, locks Locker, cfg *config.Config) *FileService {
	return &FileService{
		store:       store,
		records:     records,
		locks:       locks,
		bucket:      cfg.BucketName,
		urlExpiry:   cfg.AccessURLExpiry,
		callTimeout: cfg.StoreCallTimeout,
		now:         time.Now,
	}
}

// SetURLCache enables Redis caching of presigned URLs.
func (s *FileService) SetURLCache(cache *repo.URLCache) {
	s.urls = cache
}

// SetClock overrides the time source, used by sweep tests.
func (s *FileService) SetClock(now func() time.Time) {
	s.now = now
}

// SetNotifier installs a hook fired for every record the sweep publishes.
func (s *FileService) SetNotifier(notify func(model.FileRecord)) {
	s.notify = notify
}

// callCtx bounds one remote store call.
func (s *FileService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// accessURL returns a presigned read URL, served from cache when fresh.
func (s *FileService) accessURL(ctx context.Context, storageKey string) (string, error) {
	if s.urls != nil {
		if url, ok := s.urls.Get(ctx, storageKey); ok {
			return url, nil
		}
	}
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	url, err := s.store.PresignedGetObject(cctx, s.bucket, storageKey, s.urlExpiry)
	if err != nil {
		return "", err
	}
	if s.urls != nil {
		s.urls.Set(ctx, storageKey, url)
	}
	return url, nil
}

// GuessContentType maps a filename extension to a MIME type.
func GuessContentType(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// UploadInput carries everything one upload needs.
type UploadInput struct {
	Payload     io.Reader
	Size        int64
	OwnerScope  string
	DisplayName string
	ContentType string
	UploaderRef string
	Visibility  string
	PublishAt   *time.Time
}

// Upload writes the payload under a freshly derived key, then inserts the
// metadata record. A failed insert leaves the blob in place and reports
// FailedToSave: the orphan is surfaced, not silently cleaned up.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (*model.FileRecord, error) {
	if in.DisplayName == "" {
		return nil, missingParam("display_name")
	}
	if in.OwnerScope == "" {
		return nil, missingParam("owner_scope")
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	if visibility != model.VisibilityPrivate && visibility != model.VisibilityPublic {
		return nil, &OpError{Kind: ErrMissingParameter, Detail: "visibility must be private or public"}
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = GuessContentType(in.DisplayName)
	}

	storageKey := DeriveKey(in.OwnerScope, in.DisplayName)

	putCtx, cancel := s.callCtx(ctx)
	res, err := s.store.PutObject(putCtx, s.bucket, storageKey, in.Payload, in.Size, storage.PutOptions{
		ContentType: contentType,
	})
	cancel()
	if err != nil {
		return nil, storeErr("put object", err, false)
	}

	url, err := s.accessURL(ctx, storageKey)
	if err != nil {
		return nil, storeErr("issue access url", err, true)
	}

	rec := &model.FileRecord{
		OwnerScope:  in.OwnerScope,
		DisplayName: in.DisplayName,
		StorageKey:  storageKey,
		AccessURL:   url,
		ContentType: contentType,
		ByteSize:    res.Size,
		UploaderRef: in.UploaderRef,
		Visibility:  visibility,
		PublishAt:   in.PublishAt,
		UploadedAt:  s.now(),
	}
	insCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.records.Insert(insCtx, rec); err != nil {
		return nil, failedToSave(err, true)
	}
	return rec, nil
}

// Delete removes the blob, then its metadata row. The blob goes first so
// a partial failure leaves an orphan metadata row, which is enumerable
// and cheap to clean, rather than an orphan blob.
func (s *FileService) Delete(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return missingParam("storage_key")
	}
	release, err := s.locks.Acquire(ctx, storageKey)
	if err != nil {
		return storeErr("acquire key lock", err, false)
	}
	defer release()

	statCtx, cancel := s.callCtx(ctx)
	exists, err := s.store.StatObject(statCtx, s.bucket, storageKey)
	cancel()
	if err != nil {
		return storeErr("head object", err, false)
	}
	if !exists {
		return notFound("object "+storageKey, false)
	}

	rmCtx, cancel := s.callCtx(ctx)
	err = s.store.RemoveObject(rmCtx, s.bucket, storageKey)
	cancel()
	if err != nil {
		return storeErr("delete object", err, false)
	}

	delCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.records.Delete(delCtx, storageKey); err != nil {
		if errors.Is(err, repo.ErrRecordNotFound) {
			// The blob is already gone; the caller must hear about it.
			return notFound("metadata for "+storageKey, true)
		}
		return storeErr("delete metadata", err, true)
	}
	if s.urls != nil {
		s.urls.Invalidate(ctx, storageKey)
	}
	return nil
}

// ListedObject is one entry of the reconciliation listing, rebuilt purely
// from the bucket contents.
type ListedObject struct {
	OwnerScope  string `json:"owner_scope"`
	DisplayName string `json:"display_name"`
	StorageKey  string `json:"storage_key"`
	AccessURL   string `json:"access_url"`
	ByteSize    int64  `json:"byte_size"`
}

// ListAll enumerates the bucket directly, without consulting metadata, so
// it stays usable when the two stores disagree. Keys that do not parse
// are skipped; a bucket may hold objects we never wrote.
func (s *FileService) ListAll(ctx context.Context) ([]ListedObject, error) {
	listCtx, cancel := s.callCtx(ctx)
	infos, err := s.store.ListObjects(listCtx, s.bucket)
	cancel()
	if err != nil {
		return nil, storeErr("list objects", err, false)
	}
	out := make([]ListedObject, 0, len(infos))
	for _, info := range infos {
		scope, _, name, err := SplitKey(info.ObjectName)
		if err != nil {
			log.Printf("list: skip foreign key %q: %v", info.ObjectName, err)
			continue
		}
		url, err := s.accessURL(ctx, info.ObjectName)
		if err != nil {
			return nil, storeErr("issue access url", err, false)
		}
		out = append(out, ListedObject{
			OwnerScope:  scope,
			DisplayName: name,
			StorageKey:  info.ObjectName,
			AccessURL:   url,
			ByteSize:    info.Size,
		})
	}
	return out, nil
}

// GetMetadata returns metadata records for one owner scope. Callers
// without the staff role only ever see public records, regardless of
// ownership.
func (s *FileService) GetMetadata(ctx context.Context, principal Principal, ownerScope string) ([]model.FileRecord, error) {
	if ownerScope == "" {
		return nil, missingParam("owner_scope")
	}
	filter := repo.FileRecordFilter{OwnerScope: ownerScope}
	if principal.Role != RoleStaff {
		filter.Visibility = model.VisibilityPublic
	}
	findCtx, cancel := s.callCtx(ctx)
	records, err := s.records.Find(findCtx, filter)
	cancel()
	if err != nil {
		return nil, storeErr("query metadata", err, false)
	}
	for i := range records {
		url, err := s.accessURL(ctx, records[i].StorageKey)
		if err != nil {
			log.Printf("metadata: refresh url for %s failed: %v", records[i].StorageKey, err)
			continue
		}
		records[i].AccessURL = url
	}
	return records, nil
}

// Rename moves the blob to a key built from the new name and updates the
// record to match. Copy, delete and save are three dependent remote
// calls; a failure partway through is reported with StateChanged so the
// caller can tell the stores have drifted.
func (s *FileService) Rename(ctx context.Context, storageKey, newName string) (*model.FileRecord, error) {
	if storageKey == "" {
		return nil, missingParam("storage_key")
	}
	if newName == "" {
		return nil, missingParam("new_filename")
	}
	release, err := s.locks.Acquire(ctx, storageKey)
	if err != nil {
		return nil, storeErr("acquire key lock", err, false)
	}
	defer release()

	findCtx, cancel := s.callCtx(ctx)
	rec, err := s.records.FindByKey(findCtx, storageKey)
	cancel()
	if err != nil {
		if errors.Is(err, repo.ErrRecordNotFound) {
			return nil, notFound("metadata for "+storageKey, false)
		}
		return nil, storeErr("find metadata", err, false)
	}

	dot := strings.LastIndex(rec.DisplayName, ".")
	if dot < 0 {
		return nil, &OpError{Kind: ErrMissingParameter, Detail: "stored display name has no extension"}
	}
	extension := rec.DisplayName[dot+1:]

	scope, token, _, err := SplitKey(rec.StorageKey)
	if err != nil {
		return nil, err
	}
	newKey := joinKey(scope, token, newName+"."+extension)

	copyCtx, cancel := s.callCtx(ctx)
	err = s.store.CopyObject(copyCtx, s.bucket, storageKey, newKey)
	cancel()
	if err != nil {
		return nil, storeErr("copy object", err, false)
	}

	rmCtx, cancel := s.callCtx(ctx)
	err = s.store.RemoveObject(rmCtx, s.bucket, storageKey)
	cancel()
	if err != nil {
		return nil, storeErr("delete old object", err, true)
	}

	rec.DisplayName = newName
	rec.StorageKey = newKey
	saveCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.records.Update(saveCtx, rec); err != nil {
		return nil, failedToSave(err, true)
	}
	if s.urls != nil {
		s.urls.Invalidate(ctx, storageKey)
	}
	return rec, nil
}

// ReplaceInput carries a content replacement for an existing key.
type ReplaceInput struct {
	StorageKey  string
	Payload     io.Reader
	Size        int64
	DisplayName string
	ContentType string
}

// Replace overwrites the blob at its existing key, so every reference to
// the key stays valid, then updates the descriptive metadata.
func (s *FileService) Replace(ctx context.Context, in ReplaceInput) (*model.FileRecord, error) {
	if in.StorageKey == "" {
		return nil, missingParam("storage_key")
	}
	if in.Payload == nil {
		return nil, missingParam("file")
	}
	if in.DisplayName == "" {
		return nil, missingParam("display_name")
	}
	release, err := s.locks.Acquire(ctx, in.StorageKey)
	if err != nil {
		return nil, storeErr("acquire key lock", err, false)
	}
	defer release()

	statCtx, cancel := s.callCtx(ctx)
	exists, err := s.store.StatObject(statCtx, s.bucket, in.StorageKey)
	cancel()
	if err != nil {
		return nil, storeErr("head object", err, false)
	}
	if !exists {
		return nil, notFound("object "+in.StorageKey, false)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = GuessContentType(in.DisplayName)
	}
	putCtx, cancel := s.callCtx(ctx)
	res, err := s.store.PutObject(putCtx, s.bucket, in.StorageKey, in.Payload, in.Size, storage.PutOptions{
		ContentType: contentType,
	})
	cancel()
	if err != nil {
		return nil, storeErr("overwrite object", err, false)
	}

	findCtx, cancel := s.callCtx(ctx)
	rec, err := s.records.FindByKey(findCtx, in.StorageKey)
	cancel()
	if err != nil {
		if errors.Is(err, repo.ErrRecordNotFound) {
			// The blob was just rewritten yet no row points at it.
			return nil, notFound("metadata for "+in.StorageKey, true)
		}
		return nil, storeErr("find metadata", err, true)
	}
	rec.DisplayName = in.DisplayName
	rec.ContentType = contentType
	rec.ByteSize = res.Size
	saveCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.records.Update(saveCtx, rec); err != nil {
		return nil, failedToSave(err, true)
	}
	return rec, nil
}

// SetVisibility is the explicit administrative visibility update; unlike
// the sweep it may move a record in either direction.
func (s *FileService) SetVisibility(ctx context.Context, storageKey, visibility string) (*model.FileRecord, error) {
	if storageKey == "" {
		return nil, missingParam("storage_key")
	}
	if visibility != model.VisibilityPrivate && visibility != model.VisibilityPublic {
		return nil, &OpError{Kind: ErrMissingParameter, Detail: "visibility must be private or public"}
	}
	findCtx, cancel := s.callCtx(ctx)
	rec, err := s.records.FindByKey(findCtx, storageKey)
	cancel()
	if err != nil {
		if errors.Is(err, repo.ErrRecordNotFound) {
			return nil, notFound("metadata for "+storageKey, false)
		}
		return nil, storeErr("find metadata", err, false)
	}
	rec.Visibility = visibility
	saveCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.records.Update(saveCtx, rec); err != nil {
		return nil, failedToSave(err, false)
	}
	return rec, nil
}
