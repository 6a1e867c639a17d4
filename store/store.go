// Package store persists issues, users, comments and regions in MongoDB
// and issues media upload URLs against an S3-compatible bucket.
//
// Issue documents are written with compare-and-update on a version counter;
// user and comment bookkeeping uses single-document atomic operators.
package store

import (
	"context"
	"errors"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when an issue changed since it was read.
	ErrConflict = errors.New("document was modified concurrently")
	// ErrDuplicate is returned when a unique index rejects an insert.
	ErrDuplicate = errors.New("duplicate document")
)

// IssueSort names the sortable issue fields.
type IssueSort string

const (
	SortCreatedAt IssueSort = "createdAt"
	SortUpdatedAt IssueSort = "updatedAt"
	SortVotes     IssueSort = "votes"
)

// IssueFilter holds optional filter criteria for listing issues.
type IssueFilter struct {
	Status        models.IssueStatus
	ExcludeStatus models.IssueStatus
	Region        *primitive.ObjectID
	Nationwide    *bool
	Author        *primitive.ObjectID
	Subscriber    *primitive.ObjectID
	CreatedAfter  time.Time
	SortBy        IssueSort
	Ascending     bool
	Page          int
	Limit         int
}

// IssueStore persists issue documents.
type IssueStore interface {
	CreateIssue(ctx context.Context, issue *models.Issue) error
	GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	ListIssues(ctx context.Context, filter IssueFilter) ([]models.Issue, int64, error)
	// ReplaceIssue writes issue if the stored version still equals
	// issue.Version, then bumps issue.Version. It returns ErrConflict
	// otherwise.
	ReplaceIssue(ctx context.Context, issue *models.Issue) error
	DeleteIssue(ctx context.Context, id primitive.ObjectID) error
	AddIssueComment(ctx context.Context, issueID, commentID, actor primitive.ObjectID, now time.Time) error
	RemoveIssueComment(ctx context.Context, issueID, commentID primitive.ObjectID) error
}

// UserStore persists user documents.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserBySubject(ctx context.Context, subject string) (*models.User, error)
	UserExists(ctx context.Context, email, phone, subject string) (bool, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields ProfileUpdate) (*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error)
	// AddBadge adds badge unless the user already holds it, in which case
	// it reports added=false.
	AddBadge(ctx context.Context, id primitive.ObjectID, badge models.BadgeType) (added bool, err error)
	SetTrustScore(ctx context.Context, id primitive.ObjectID, score int) error
	SetPhoneVerified(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	TouchLastActive(ctx context.Context, id primitive.ObjectID, at time.Time) error

	AddIssueCreated(ctx context.Context, id, issueID primitive.ObjectID) error
	AddVoteRecord(ctx context.Context, id primitive.ObjectID, rec models.VoteRecord) error
	SetVoteRecordPriority(ctx context.Context, id, issueID primitive.ObjectID, priority models.Priority) error
	AddSubscription(ctx context.Context, id, issueID primitive.ObjectID) error
	RemoveSubscription(ctx context.Context, id, issueID primitive.ObjectID) error
	AddCommentPosted(ctx context.Context, id, commentID primitive.ObjectID) error
	RemoveCommentPosted(ctx context.Context, id, commentID primitive.ObjectID) error
	// DetachIssue strips every reference to issueID from all users.
	DetachIssue(ctx context.Context, issueID primitive.ObjectID) error
}

// ProfileUpdate carries the optional profile fields a user may change.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Region       *primitive.ObjectID
	Bio          *string
	Organization *string
	Position     *string
}

// CommentStore persists comment documents.
type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListComments(ctx context.Context, issueID primitive.ObjectID, page, limit int, ascending bool) ([]models.Comment, int64, error)
	UpdateCommentContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) error
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	// ToggleLike flips user's like and reports whether the comment is
	// liked afterwards along with the new like count.
	ToggleLike(ctx context.Context, id, user primitive.ObjectID) (liked bool, count int, err error)
}

// RegionStore resolves region references.
type RegionStore interface {
	GetRegion(ctx context.Context, id primitive.ObjectID) (*models.Region, error)
}
