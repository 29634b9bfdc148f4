package service

import (
	"CourseForge/config"
	"CourseForge/internal/repo"
	"CourseForge/internal/storage"
	"CourseForge/model"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memObject struct {
	data        []byte
	contentType string
}

// memStore is an in-memory storage.Store used to drive the coordinator
// without MinIO.
type memStore struct {
	objects    map[string]memObject
	failPut    bool
	failCopy   bool
	failRemove bool
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]memObject)}
}

func (s *memStore) PutObject(_ context.Context, _, object string, reader io.Reader, _ int64, opts storage.PutOptions) (storage.PutResult, error) {
	if s.failPut {
		return storage.PutResult{}, errors.New("put refused")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.PutResult{}, err
	}
	s.objects[object] = memObject{data: data, contentType: opts.ContentType}
	return storage.PutResult{Size: int64(len(data)), ContentType: opts.ContentType}, nil
}

func (s *memStore) GetObject(_ context.Context, _, object string) (io.ReadCloser, storage.ObjectInfo, error) {
	obj, ok := s.objects[object]
	if !ok {
		return nil, storage.ObjectInfo{}, errors.New("no such object")
	}
	info := storage.ObjectInfo{ObjectName: object, Size: int64(len(obj.data)), ContentType: obj.contentType}
	return io.NopCloser(bytes.NewReader(obj.data)), info, nil
}

func (s *memStore) StatObject(_ context.Context, _, object string) (bool, error) {
	_, ok := s.objects[object]
	return ok, nil
}

func (s *memStore) CopyObject(_ context.Context, _, srcObject, dstObject string) error {
	if s.failCopy {
		return errors.New("copy refused")
	}
	obj, ok := s.objects[srcObject]
	if !ok {
		return errors.New("no such object")
	}
	s.objects[dstObject] = obj
	return nil
}

func (s *memStore) RemoveObject(_ context.Context, _, object string) error {
	if s.failRemove {
		return errors.New("remove refused")
	}
	delete(s.objects, object)
	return nil
}

func (s *memStore) PresignedGetObject(_ context.Context, _, object string, _ time.Duration) (string, error) {
	return "https://store.test/" + object, nil
}

func (s *memStore) ListObjects(_ context.Context, _ string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for name, obj := range s.objects {
		out = append(out, storage.ObjectInfo{ObjectName: name, Size: int64(len(obj.data)), ContentType: obj.contentType})
	}
	return out, nil
}

// memRecords is an in-memory repo.FileRecordStore mirroring the Mongo
// store's matching rules: delete by key, update by id.
type memRecords struct {
	records    []model.FileRecord
	failInsert bool
	failUpdate bool
}

func (r *memRecords) Insert(_ context.Context, rec *model.FileRecord) error {
	if r.failInsert {
		return errors.New("insert refused")
	}
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	r.records = append(r.records, *rec)
	return nil
}

func (r *memRecords) FindByKey(_ context.Context, storageKey string) (*model.FileRecord, error) {
	for i := range r.records {
		if r.records[i].StorageKey == storageKey {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, repo.ErrRecordNotFound
}

func (r *memRecords) Find(_ context.Context, filter repo.FileRecordFilter) ([]model.FileRecord, error) {
	var out []model.FileRecord
	for _, rec := range r.records {
		if filter.OwnerScope != "" && rec.OwnerScope != filter.OwnerScope {
			continue
		}
		if filter.Visibility != "" && rec.Visibility != filter.Visibility {
			continue
		}
		if filter.NotVisibility != "" && rec.Visibility == filter.NotVisibility {
			continue
		}
		if filter.ContentType != "" && rec.ContentType != filter.ContentType {
			continue
		}
		if filter.DueBefore != nil {
			if rec.PublishAt == nil || rec.PublishAt.After(*filter.DueBefore) {
				continue
			}
		}
		if filter.NotIngested && rec.IngestedAt != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memRecords) Update(_ context.Context, rec *model.FileRecord) error {
	if r.failUpdate {
		return errors.New("update refused")
	}
	for i := range r.records {
		if r.records[i].ID == rec.ID {
			r.records[i] = *rec
			return nil
		}
	}
	return repo.ErrRecordNotFound
}

func (r *memRecords) Delete(_ context.Context, storageKey string) error {
	for i := range r.records {
		if r.records[i].StorageKey == storageKey {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return repo.ErrRecordNotFound
}

func newTestService() (*FileService, *memStore, *memRecords) {
	store := newMemStore()
	records := &memRecords{}
	cfg := &config.Config{
		BucketName:       "course-files",
		AccessURLExpiry:  time.Hour,
		StoreCallTimeout: time.Second,
	}
	svc := NewFileService(store, records, NewKeyMutex(), cfg)
	return svc, store, records
}

func upload(t *testing.T, svc *FileService, scope, name, body string) *model.FileRecord {
	t.Helper()
	rec, err := svc.Upload(context.Background(), UploadInput{
		Payload:     strings.NewReader(body),
		Size:        int64(len(body)),
		OwnerScope:  scope,
		DisplayName: name,
		UploaderRef: "teacher@example.edu",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return rec
}

func TestUploadWritesBlobAndRecord(t *testing.T) {
	svc, store, records := newTestService()
	rec := upload(t, svc, "cs101", "notes.pdf", "pdf bytes")

	if _, ok := store.objects[rec.StorageKey]; !ok {
		t.Fatalf("no blob at %q", rec.StorageKey)
	}
	got, err := records.FindByKey(context.Background(), rec.StorageKey)
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if got.ByteSize != int64(len("pdf bytes")) {
		t.Errorf("ByteSize = %d", got.ByteSize)
	}
	if got.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q", got.ContentType)
	}
	if got.Visibility != model.VisibilityPrivate {
		t.Errorf("Visibility = %q, want private by default", got.Visibility)
	}
	if got.AccessURL == "" {
		t.Error("AccessURL is empty")
	}
	if _, _, _, err := SplitKey(rec.StorageKey); err != nil {
		t.Errorf("storage key %q does not parse: %v", rec.StorageKey, err)
	}
}

func TestUploadValidatesInput(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadInput{OwnerScope: "cs101"})
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("missing display name: err = %v", err)
	}
	_, err = svc.Upload(ctx, UploadInput{DisplayName: "notes.pdf"})
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("missing owner scope: err = %v", err)
	}
	_, err = svc.Upload(ctx, UploadInput{
		Payload: strings.NewReader("x"), OwnerScope: "cs101",
		DisplayName: "notes.pdf", Visibility: "everyone",
	})
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("bad visibility: err = %v", err)
	}
}

func TestUploadInsertFailureLeavesOrphanBlob(t *testing.T) {
	svc, store, records := newTestService()
	records.failInsert = true

	_, err := svc.Upload(context.Background(), UploadInput{
		Payload:     strings.NewReader("pdf bytes"),
		Size:        9,
		OwnerScope:  "cs101",
		DisplayName: "notes.pdf",
	})
	if !errors.Is(err, ErrFailedToSave) {
		t.Fatalf("err = %v, want ErrFailedToSave", err)
	}
	if !StateChanged(err) {
		t.Error("StateChanged = false, but the blob was already written")
	}
	if len(store.objects) != 1 {
		t.Errorf("blob count = %d, want the orphan to remain", len(store.objects))
	}
	if len(records.records) != 0 {
		t.Errorf("record count = %d, want 0", len(records.records))
	}
}

func TestDeleteRemovesBlobAndRecord(t *testing.T) {
	svc, store, records := newTestService()
	rec := upload(t, svc, "cs101", "notes.pdf", "pdf bytes")

	if err := svc.Delete(context.Background(), rec.StorageKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.objects[rec.StorageKey]; ok {
		t.Error("blob still present")
	}
	if _, err := records.FindByKey(context.Background(), rec.StorageKey); !errors.Is(err, repo.ErrRecordNotFound) {
		t.Errorf("record lookup after delete: err = %v", err)
	}
}

func TestDeleteMissingObject(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Delete(context.Background(), "cs101_d2719f5e-9c1a-4f4b-8f59-2b7a0e9f3c11_gone.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if StateChanged(err) {
		t.Error("StateChanged = true, but nothing was mutated")
	}
}

func TestDeleteWithoutMetadataReportsStateChanged(t *testing.T) {
	svc, store, _ := newTestService()
	const key = "cs101_d2719f5e-9c1a-4f4b-8f59-2b7a0e9f3c11_orphan.pdf"
	store.objects[key] = memObject{data: []byte("x")}

	err := svc.Delete(context.Background(), key)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !StateChanged(err) {
		t.Error("StateChanged = false, but the blob was removed")
	}
	if _, ok := store.objects[key]; ok {
		t.Error("blob still present")
	}
}

func TestRenameMovesBlobAndRecord(t *testing.T) {
	svc, store, records := newTestService()
	rec := upload(t, svc, "cs101", "notes.pdf", "pdf bytes")
	oldKey := rec.StorageKey
	_, oldToken, _, _ := SplitKey(oldKey)

	renamed, err := svc.Rename(context.Background(), oldKey, "week1")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	scope, token, name, err := SplitKey(renamed.StorageKey)
	if err != nil {
		t.Fatalf("new key %q does not parse: %v", renamed.StorageKey, err)
	}
	if scope != "cs101" || token != oldToken {
		t.Errorf("scope/token changed: (%q, %q)", scope, token)
	}
	if name != "week1.pdf" {
		t.Errorf("name = %q, want week1.pdf", name)
	}
	if renamed.DisplayName != "week1" {
		t.Errorf("DisplayName = %q, want week1", renamed.DisplayName)
	}
	if _, ok := store.objects[oldKey]; ok {
		t.Error("old blob still present")
	}
	if _, ok := store.objects[renamed.StorageKey]; !ok {
		t.Error("no blob at the new key")
	}
	if _, err := records.FindByKey(context.Background(), oldKey); !errors.Is(err, repo.ErrRecordNotFound) {
		t.Errorf("old key still resolves: err = %v", err)
	}
}

func TestRenameUnknownKey(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Rename(context.Background(), "cs101_d2719f5e-9c1a-4f4b-8f59-2b7a0e9f3c11_gone.pdf", "week1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRenameExtensionlessName(t *testing.T) {
	svc, store, records := newTestService()
	const key = "cs101_d2719f5e-9c1a-4f4b-8f59-2b7a0e9f3c11_README"
	store.objects[key] = memObject{data: []byte("x")}
	_ = records.Insert(context.Background(), &model.FileRecord{
		OwnerScope:  "cs101",
		DisplayName: "README",
		StorageKey:  key,
		Visibility:  model.VisibilityPrivate,
	})

	_, err := svc.Rename(context.Background(), key, "readme2")
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
	if _, ok := store.objects[key]; !ok {
		t.Error("blob was touched despite the rejected rename")
	}
}

func TestRenameDeleteFailureReportsStateChanged(t *testing.T) {
	svc, store, _ := newTestService()
	rec := upload(t, svc, "cs101", "notes.pdf", "pdf bytes")
	store.failRemove = true

	_, err := svc.Rename(context.Background(), rec.StorageKey, "week1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if !StateChanged(err) {
		t.Error("StateChanged = false, but the copy already happened")
	}
}

func TestReplaceKeepsStorageKey(t *testing.T) {
	svc, store, _ := newTestService()
	rec := upload(t, svc, "cs101", "notes.pdf", "v1")

	updated, err := svc.Replace(context.Background(), ReplaceInput{
		StorageKey:  rec.StorageKey,
		Payload:     strings.NewReader("version two"),
		Size:        int64(len("version two")),
		DisplayName: "notes-v2.pdf",
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if updated.StorageKey != rec.StorageKey {
		t.Errorf("StorageKey changed: %q -> %q", rec.StorageKey, updated.StorageKey)
	}
	if updated.ByteSize != int64(len("version two")) {
		t.Errorf("ByteSize = %d", updated.ByteSize)
	}
	if updated.DisplayName != "notes-v2.pdf" {
		t.Errorf("DisplayName = %q", updated.DisplayName)
	}
	if got := string(store.objects[rec.StorageKey].data); got != "version two" {
		t.Errorf("blob content = %q", got)
	}
}

func TestReplaceMissingObject(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Replace(context.Background(), ReplaceInput{
		StorageKey:  "cs101_d2719f5e-9c1a-4f4b-8f59-2b7a0e9f3c11_gone.pdf",
		Payload:     strings.NewReader("x"),
		Size:        1,
		DisplayName: "gone.pdf",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetMetadataFiltersByRole(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	pub := upload(t, svc, "cs101", "syllabus.pdf", "a")
	if _, err := svc.SetVisibility(ctx, pub.StorageKey, model.VisibilityPublic); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}
	upload(t, svc, "cs101", "exam-draft.pdf", "b")

	student, err := svc.GetMetadata(ctx, Principal{Subject: "alice", Role: RoleStudent}, "cs101")
	if err != nil {
		t.Fatalf("GetMetadata(student): %v", err)
	}
	if len(student) != 1 || student[0].DisplayName != "syllabus.pdf" {
		t.Errorf("student sees %d records", len(student))
	}

	staff, err := svc.GetMetadata(ctx, Principal{Subject: "bob", Role: RoleStaff}, "cs101")
	if err != nil {
		t.Fatalf("GetMetadata(staff): %v", err)
	}
	if len(staff) != 2 {
		t.Errorf("staff sees %d records, want 2", len(staff))
	}
}

func TestListAllSkipsForeignKeys(t *testing.T) {
	svc, store, _ := newTestService()
	rec := upload(t, svc, "cs101", "notes.pdf", "pdf bytes")
	store.objects["random-upload.bin"] = memObject{data: []byte("junk")}

	listing, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("listing has %d entries, want 1", len(listing))
	}
	if listing[0].StorageKey != rec.StorageKey {
		t.Errorf("StorageKey = %q", listing[0].StorageKey)
	}
	if listing[0].OwnerScope != "cs101" || listing[0].DisplayName != "notes.pdf" {
		t.Errorf("entry = %+v", listing[0])
	}
	if listing[0].AccessURL == "" {
		t.Error("AccessURL is empty")
	}
}

func TestSetVisibilityValidates(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.SetVisibility(context.Background(), "some_key", "everyone")
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
}
