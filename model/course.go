package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is the parent grouping for uploaded files. File records point at
// it through their owner scope; it carries no cross-store burden.
type Course struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Visibility    string             `bson:"visibility" json:"visibility"`
	Collaborators []string           `bson:"collaborators,omitempty" json:"collaborators,omitempty"`
	CreatedBy     string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
