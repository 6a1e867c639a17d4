package engine

import (
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentInput is what a user submits when posting to a thread.
type CommentInput struct {
	Content   string
	MediaURLs []string
}

// NewComment builds a comment on issue by author. parent, when non-nil,
// must already belong to the same issue. The official tag is taken from the
// author's role at this instant and is never recomputed.
func NewComment(issue *models.Issue, author *models.User, parent *models.Comment, in CommentInput, now time.Time) (*models.Comment, error) {
	if !author.IsVerified() {
		return nil, Forbidden("account not verified")
	}
	content, err := ValidateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := ValidateMediaURLs(in.MediaURLs); err != nil {
		return nil, err
	}
	media := in.MediaURLs
	if media == nil {
		media = []string{}
	}

	c := &models.Comment{
		ID:         primitive.NewObjectID(),
		Content:    content,
		Author:     author.ID,
		Issue:      issue.ID,
		Likes:      []primitive.ObjectID{},
		IsOfficial: author.Role.Can(models.CapOfficialComment),
		MediaURLs:  media,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if parent != nil {
		if parent.Issue != issue.ID {
			return nil, ErrInvalidParent
		}
		if parent.IsReply() {
			return nil, ErrNestedReply
		}
		pid := parent.ID
		c.ParentComment = &pid
	}
	return c, nil
}

// CanEditComment reports whether actor may update or delete c: its author,
// a moderator or an admin.
func CanEditComment(c *models.Comment, actor *models.User) bool {
	return c.Author == actor.ID || actor.Role.Can(models.CapModerateComments)
}

// EditComment replaces the text of c after the ownership check.
func EditComment(c *models.Comment, actor *models.User, content string, now time.Time) error {
	if !CanEditComment(c, actor) {
		return Forbidden("you do not have permission to update this comment")
	}
	content, err := ValidateCommentContent(content)
	if err != nil {
		return err
	}
	c.Content = content
	c.UpdatedAt = now
	return nil
}

// ToggleLike flips user's membership in c.Likes and reports whether the
// comment is liked afterwards.
func ToggleLike(c *models.Comment, user primitive.ObjectID) bool {
	for i, l := range c.Likes {
		if l == user {
			c.Likes = append(c.Likes[:i], c.Likes[i+1:]...)
			return false
		}
	}
	c.Likes = append(c.Likes, user)
	return true
}
