package repo

import (
	"CourseForge/model"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FileRecordFilter narrows Find queries. Zero-valued fields are ignored.
type FileRecordFilter struct {
	OwnerScope    string
	Visibility    string
	NotVisibility string
	ContentType   string
	DueBefore     *time.Time
	NotIngested   bool
}

// FileRecordStore is the metadata side of the coordinator. The Mongo
// implementation below is the production one; tests substitute an
// in-memory store.
type FileRecordStore interface {
	Insert(ctx context.Context, rec *model.FileRecord) error
	FindByKey(ctx context.Context, storageKey string) (*model.FileRecord, error)
	Find(ctx context.Context, filter FileRecordFilter) ([]model.FileRecord, error)
	Update(ctx context.Context, rec *model.FileRecord) error
	Delete(ctx context.Context, storageKey string) error
}

type mongoFileRecords struct {
	col *mongo.Collection
}

func (s *mongoFileRecords) Insert(ctx context.Context, rec *model.FileRecord) error {
	res, err := s.col.InsertOne(ctx, rec)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid
	}
	return nil
}

func (s *mongoFileRecords) FindByKey(ctx context.Context, storageKey string) (*model.FileRecord, error) {
	var rec model.FileRecord
	err := s.col.FindOne(ctx, bson.M{"storage_key": storageKey}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *mongoFileRecords) Find(ctx context.Context, filter FileRecordFilter) ([]model.FileRecord, error) {
	query := bson.M{}
	if filter.OwnerScope != "" {
		query["owner_scope"] = filter.OwnerScope
	}
	if filter.Visibility != "" {
		query["visibility"] = filter.Visibility
	}
	if filter.NotVisibility != "" {
		query["visibility"] = bson.M{"$ne": filter.NotVisibility}
	}
	if filter.ContentType != "" {
		query["content_type"] = filter.ContentType
	}
	if filter.DueBefore != nil {
		query["publish_at"] = bson.M{"$ne": nil, "$lte": *filter.DueBefore}
	}
	if filter.NotIngested {
		query["ingested_at"] = nil
	}
	cursor, err := s.col.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []model.FileRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *mongoFileRecords) Update(ctx context.Context, rec *model.FileRecord) error {
	// Match by _id, not storage key: rename rewrites the key itself.
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *mongoFileRecords) Delete(ctx context.Context, storageKey string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"storage_key": storageKey})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}
