package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a message in an issue's discussion thread
type Comment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Content       string               `bson:"content" json:"content"`
	Author        primitive.ObjectID   `bson:"author" json:"author"`
	Issue         primitive.ObjectID   `bson:"issue" json:"issue"`
	ParentComment *primitive.ObjectID  `bson:"parentComment" json:"parentComment"`
	Likes         []primitive.ObjectID `bson:"likes" json:"likes"`
	IsOfficial    bool                 `bson:"isOfficial" json:"isOfficial"`
	MediaURLs     []string             `bson:"mediaUrls" json:"mediaUrls"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentComment != nil
}

// LikedBy reports whether user currently likes the comment.
func (c *Comment) LikedBy(user primitive.ObjectID) bool {
	for _, l := range c.Likes {
		if l == user {
			return true
		}
	}
	return false
}
