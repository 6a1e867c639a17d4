package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Region is an administrative area issues and users belong to. Only the
// fields the engine needs for reference checks are mapped.
type Region struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
	Code string             `bson:"code" json:"code"`
}
