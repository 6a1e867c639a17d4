package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/models"
	"civicpulse-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentService runs discussion threads on issues.
type CommentService struct {
	comments store.CommentStore
	issues   store.IssueStore
	users    store.UserStore
	trust    *trustKeeper
	now      Clock
	log      *slog.Logger
}

func NewCommentService(comments store.CommentStore, issues store.IssueStore, users store.UserStore, log *slog.Logger) *CommentService {
	s := &CommentService{
		comments: comments,
		issues:   issues,
		users:    users,
		now:      time.Now,
		log:      log,
	}
	s.trust = &trustKeeper{users: users, now: func() time.Time { return s.now() }, log: log}
	return s
}

// CreateComment posts a comment (or a reply when parentID is set) and links
// it from the issue and the author.
func (s *CommentService) CreateComment(ctx context.Context, author *models.User, issueID primitive.ObjectID, parentID *primitive.ObjectID, in engine.CommentInput) (*models.Comment, error) {
	issue, err := s.issues.GetIssue(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err, "issue")
	}
	var parent *models.Comment
	if parentID != nil {
		parent, err = s.comments.GetComment(ctx, *parentID)
		if err != nil {
			return nil, mapStoreErr(err, "parent comment")
		}
	}

	now := s.now()
	comment, err := engine.NewComment(issue, author, parent, in, now)
	if err != nil {
		return nil, err
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	dependent(ctx, s.log, "issues.comments.add", func(ctx context.Context) error {
		return s.issues.AddIssueComment(ctx, issueID, comment.ID, author.ID, now)
	}, "issue", issueID.Hex(), "comment", comment.ID.Hex())
	dependent(ctx, s.log, "users.commentsPosted.add", func(ctx context.Context) error {
		return s.users.AddCommentPosted(ctx, author.ID, comment.ID)
	}, "user", author.ID.Hex(), "comment", comment.ID.Hex())
	s.trust.refresh(ctx, author.ID)

	return comment, nil
}

// ListComments pages through an issue's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, issueID primitive.ObjectID, page, limit int) ([]models.Comment, int64, error) {
	if _, err := s.issues.GetIssue(ctx, issueID); err != nil {
		return nil, 0, mapStoreErr(err, "issue")
	}
	return s.comments.ListComments(ctx, issueID, page, limit, true)
}

func (s *CommentService) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	c, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "comment")
	}
	return c, nil
}

// UpdateComment replaces a comment's text. The official tag is untouched.
func (s *CommentService) UpdateComment(ctx context.Context, actor *models.User, id primitive.ObjectID, content string) (*models.Comment, error) {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := engine.EditComment(c, actor, content, s.now()); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateCommentContent(ctx, id, c.Content, c.UpdatedAt); err != nil {
		return nil, mapStoreErr(err, "comment")
	}
	return c, nil
}

// DeleteComment removes a comment and unlinks it from the issue and its
// author.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, id primitive.ObjectID) error {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !engine.CanEditComment(c, actor) {
		return engine.Forbidden("you do not have permission to delete this comment")
	}
	if err := s.comments.DeleteComment(ctx, id); err != nil {
		return mapStoreErr(err, "comment")
	}

	dependent(ctx, s.log, "issues.comments.remove", func(ctx context.Context) error {
		return s.issues.RemoveIssueComment(ctx, c.Issue, id)
	}, "issue", c.Issue.Hex(), "comment", id.Hex())
	dependent(ctx, s.log, "users.commentsPosted.remove", func(ctx context.Context) error {
		return s.users.RemoveCommentPosted(ctx, c.Author, id)
	}, "user", c.Author.Hex(), "comment", id.Hex())
	s.trust.refresh(ctx, c.Author)
	return nil
}

// LikeComment toggles user's like and returns the new state and count.
func (s *CommentService) LikeComment(ctx context.Context, user *models.User, id primitive.ObjectID) (bool, int, error) {
	liked, count, err := s.comments.ToggleLike(ctx, id, user.ID)
	if err != nil {
		return false, 0, mapStoreErr(err, "comment")
	}
	return liked, count, nil
}
