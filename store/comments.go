package store

import (
	"context"
	"errors"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepo is the MongoDB CommentStore.
type CommentRepo struct {
	coll *mongo.Collection
}

func NewCommentRepo(db *mongo.Database) *CommentRepo {
	return &CommentRepo{coll: db.Collection("comments")}
}

func (r *CommentRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *CommentRepo) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) ListComments(ctx context.Context, issueID primitive.ObjectID, page, limit int, ascending bool) ([]models.Comment, int64, error) {
	if limit < 1 || limit > maxLimit {
		limit = 20
	}
	page, limit = normalizePage(page, limit)
	filter := bson.M{"issue": issueID}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	order := -1
	if ascending {
		order = 1
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: order}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepo) UpdateCommentContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"content": content, "updatedAt": at},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommentRepo) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommentRepo) ToggleLike(ctx context.Context, id, user primitive.ObjectID) (bool, int, error) {
	liked := true
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "likes": bson.M{"$ne": user}},
		bson.M{"$push": bson.M{"likes": user}},
	)
	if err != nil {
		return false, 0, err
	}
	if res.MatchedCount == 0 {
		liked = false
		res, err = r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"likes": user}})
		if err != nil {
			return false, 0, err
		}
		if res.MatchedCount == 0 {
			return false, 0, ErrNotFound
		}
	}

	var doc struct {
		Likes []primitive.ObjectID `bson:"likes"`
	}
	opts := options.FindOne().SetProjection(bson.M{"likes": 1})
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		return liked, 0, err
	}
	return liked, len(doc.Likes), nil
}
