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

// UserRepo is the MongoDB UserStore.
type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection("users")}
}

func (r *UserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) GetUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"firebaseUid": subject})
}

func (r *UserRepo) UserExists(ctx context.Context, email, phone, subject string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"email": email},
		{"phone": phone},
		{"firebaseUid": subject},
	}})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if p.FirstName != nil {
		set["firstName"] = *p.FirstName
	}
	if p.LastName != nil {
		set["lastName"] = *p.LastName
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Region != nil {
		set["region"] = *p.Region
	}
	if p.Bio != nil {
		set["bio"] = *p.Bio
	}
	if p.Organization != nil {
		set["organization"] = *p.Organization
	}
	if p.Position != nil {
		set["position"] = *p.Position
	}
	return r.findOneAndSet(ctx, id, set)
}

func (r *UserRepo) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"role": role, "updatedAt": time.Now()})
}

func (r *UserRepo) AddBadge(ctx context.Context, id primitive.ObjectID, badge models.BadgeType) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "badges": bson.M{"$ne": badge}},
		bson.M{"$push": bson.M{"badges": badge}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	if _, err := r.GetUser(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *UserRepo) SetTrustScore(ctx context.Context, id primitive.ObjectID, score int) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"trustScore": score}})
}

func (r *UserRepo) SetPhoneVerified(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"isPhoneVerified": true, "updatedAt": time.Now()})
}

func (r *UserRepo) TouchLastActive(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"lastActive": at}})
}

func (r *UserRepo) AddIssueCreated(ctx context.Context, id, issueID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$push": bson.M{"issuesCreated": issueID}})
}

func (r *UserRepo) AddVoteRecord(ctx context.Context, id primitive.ObjectID, rec models.VoteRecord) error {
	return r.update(ctx, id, bson.M{"$push": bson.M{"issuesVotedOn": rec}})
}

func (r *UserRepo) SetVoteRecordPriority(ctx context.Context, id, issueID primitive.ObjectID, priority models.Priority) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "issuesVotedOn.issue": issueID},
		bson.M{"$set": bson.M{"issuesVotedOn.$.priority": priority}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) AddSubscription(ctx context.Context, id, issueID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{"issuesSubscribed": issueID}})
}

func (r *UserRepo) RemoveSubscription(ctx context.Context, id, issueID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{"issuesSubscribed": issueID}})
}

func (r *UserRepo) AddCommentPosted(ctx context.Context, id, commentID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{"commentsPosted": commentID}})
}

func (r *UserRepo) RemoveCommentPosted(ctx context.Context, id, commentID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{"commentsPosted": commentID}})
}

func (r *UserRepo) DetachIssue(ctx context.Context, issueID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"$or": []bson.M{
			{"issuesCreated": issueID},
			{"issuesVotedOn.issue": issueID},
			{"issuesSubscribed": issueID},
		}},
		bson.M{"$pull": bson.M{
			"issuesCreated":    issueID,
			"issuesVotedOn":    bson.M{"issue": issueID},
			"issuesSubscribed": issueID,
		}},
	)
	return err
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
