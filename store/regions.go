package store

import (
	"context"
	"errors"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RegionRepo is the MongoDB RegionStore.
type RegionRepo struct {
	coll *mongo.Collection
}

func NewRegionRepo(db *mongo.Database) *RegionRepo {
	return &RegionRepo{coll: db.Collection("regions")}
}

func (r *RegionRepo) GetRegion(ctx context.Context, id primitive.ObjectID) (*models.Region, error) {
	var region models.Region
	opts := options.FindOne().SetProjection(bson.M{"name": 1, "code": 1})
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&region)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &region, nil
}
