package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// FileRecord is the metadata row kept in lockstep with one stored blob.
// The storage key is immutable except through a rename, which moves the
// blob and this field together.
type FileRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OwnerScope  string             `bson:"owner_scope" json:"owner_scope"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	StorageKey  string             `bson:"storage_key" json:"storage_key"`

	// AccessURL is regenerated on read; the stored value may be stale.
	AccessURL string `bson:"access_url,omitempty" json:"access_url,omitempty"`

	ContentType string `bson:"content_type,omitempty" json:"content_type,omitempty"`
	ByteSize    int64  `bson:"byte_size" json:"byte_size"`
	UploaderRef string `bson:"uploader_ref,omitempty" json:"uploader_ref,omitempty"`

	Visibility string     `bson:"visibility" json:"visibility"`
	PublishAt  *time.Time `bson:"publish_at,omitempty" json:"publish_at,omitempty"`

	UploadedAt time.Time  `bson:"uploaded_at" json:"uploaded_at"`
	IngestedAt *time.Time `bson:"ingested_at,omitempty" json:"ingested_at,omitempty"`
}
