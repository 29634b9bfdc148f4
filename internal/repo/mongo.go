package repo

import (
	"CourseForge/config"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrRecordNotFound is returned when a lookup matches nothing.
var ErrRecordNotFound = errors.New("record not found")

const (
	collectionFiles   = "file_metadata"
	collectionCourses = "courses"
)

// Mongo wraps the database handle used by the record stores.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo connects to MongoDB and ensures indexes.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	m := &Mongo{
		client: client,
		db:     client.Database(cfg.DBName),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

// MustConnectMongo connects or exits, for process bootstrap.
func MustConnectMongo(ctx context.Context, cfg *config.Config) *Mongo {
	m, err := ConnectMongo(ctx, cfg)
	if err != nil {
		log.Fatal("init mongo fail ", err)
	}
	log.Println("init mongo success")
	return m
}

// ensureIndexes creates the unique storage_key index and the sweep index.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	files := m.db.Collection(collectionFiles)
	_, err := files.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "storage_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "publish_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "owner_scope", Value: 1}},
		},
	})
	return err
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Files returns the file metadata store.
func (m *Mongo) Files() FileRecordStore {
	return &mongoFileRecords{col: m.db.Collection(collectionFiles)}
}

// Courses returns the course store.
func (m *Mongo) Courses() CourseStore {
	return &mongoCourses{col: m.db.Collection(collectionCourses)}
}
