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

const (
	defaultLimit = 10
	maxLimit     = 100
)

// IssueRepo is the MongoDB IssueStore.
type IssueRepo struct {
	coll *mongo.Collection
}

func NewIssueRepo(db *mongo.Database) *IssueRepo {
	return &IssueRepo{coll: db.Collection("issues")}
}

func (r *IssueRepo) CreateIssue(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, issue)
	return err
}

func (r *IssueRepo) GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *IssueRepo) ListIssues(ctx context.Context, f IssueFilter) ([]models.Issue, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	} else if f.ExcludeStatus != "" {
		filter["status"] = bson.M{"$ne": f.ExcludeStatus}
	}
	if f.Region != nil {
		filter["location.region"] = *f.Region
	}
	if f.Nationwide != nil {
		filter["location.isNationwide"] = *f.Nationwide
	}
	if f.Author != nil {
		filter["author"] = *f.Author
	}
	if f.Subscriber != nil {
		filter["subscribers"] = *f.Subscriber
	}
	if !f.CreatedAfter.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.CreatedAfter}
	}

	page, limit := normalizePage(f.Page, f.Limit)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	order := -1
	if f.Ascending {
		order = 1
	}
	sortKey := "createdAt"
	switch f.SortBy {
	case SortUpdatedAt:
		sortKey = "updatedAt"
	case SortVotes:
		sortKey = "votes.total"
	}
	sort := bson.D{{Key: sortKey, Value: order}}
	if sortKey != "createdAt" {
		sort = append(sort, bson.E{Key: "createdAt", Value: -1})
	}

	findOptions := options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *IssueRepo) ReplaceIssue(ctx context.Context, issue *models.Issue) error {
	expected := issue.Version
	issue.Version = expected + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": issue.ID, "version": expected}, issue)
	if err != nil {
		issue.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		issue.Version = expected
		return r.missingOrConflict(ctx, issue.ID)
	}
	return nil
}

func (r *IssueRepo) DeleteIssue(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *IssueRepo) AddIssueComment(ctx context.Context, issueID, commentID, actor primitive.ObjectID, now time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{
		"$addToSet": bson.M{"comments": commentID},
		"$set":      bson.M{"lastUpdatedBy": actor, "updatedAt": now},
		"$inc":      bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *IssueRepo) RemoveIssueComment(ctx context.Context, issueID, commentID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{
		"$pull": bson.M{"comments": commentID},
		"$inc":  bson.M{"version": 1},
	})
	return err
}

func (r *IssueRepo) missingOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}
