package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered citizen, official or staff member.
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Subject           string               `bson:"firebaseUid" json:"-"`
	FirstName         string               `bson:"firstName" json:"firstName"`
	LastName          string               `bson:"lastName" json:"lastName"`
	Email             string               `bson:"email" json:"email"`
	Phone             string               `bson:"phone" json:"phone"`
	Region            primitive.ObjectID   `bson:"region" json:"region"`
	Role              Role                 `bson:"role" json:"role"`
	TrustScore        int                  `bson:"trustScore" json:"trustScore"`
	Badges            []BadgeType          `bson:"badges" json:"badges"`
	IsEmailVerified   bool                 `bson:"isEmailVerified" json:"isEmailVerified"`
	IsPhoneVerified   bool                 `bson:"isPhoneVerified" json:"isPhoneVerified"`
	IsIDVerified      bool                 `bson:"isIdVerified" json:"isIdVerified"`
	ProfilePictureURL string               `bson:"profilePictureUrl" json:"profilePictureUrl"`
	Bio               string               `bson:"bio" json:"bio"`
	Organization      string               `bson:"organization" json:"organization"`
	Position          string               `bson:"position" json:"position"`
	IssuesCreated     []primitive.ObjectID `bson:"issuesCreated" json:"issuesCreated"`
	IssuesVotedOn     []VoteRecord         `bson:"issuesVotedOn" json:"issuesVotedOn"`
	IssuesSubscribed  []primitive.ObjectID `bson:"issuesSubscribed" json:"issuesSubscribed"`
	CommentsPosted    []primitive.ObjectID `bson:"commentsPosted" json:"commentsPosted"`
	LastActive        time.Time            `bson:"lastActive" json:"lastActive"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsVerified is the derived account-verification state that gates voting,
// issue submission and commenting: both email and phone must be confirmed.
func (u *User) IsVerified() bool {
	return u.IsEmailVerified && u.IsPhoneVerified
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasBadge reports whether the user already holds b.
func (u *User) HasBadge(b BadgeType) bool {
	for _, held := range u.Badges {
		if held == b {
			return true
		}
	}
	return false
}

// Statistics are the activity counts shown on a profile.
type Statistics struct {
	IssuesCreated  int `json:"issuesCreated"`
	IssuesVotedOn  int `json:"issuesVotedOn"`
	CommentsPosted int `json:"commentsPosted"`
	TotalActivity  int `json:"totalActivity"`
}

func (u *User) Statistics() Statistics {
	s := Statistics{
		IssuesCreated:  len(u.IssuesCreated),
		IssuesVotedOn:  len(u.IssuesVotedOn),
		CommentsPosted: len(u.CommentsPosted),
	}
	s.TotalActivity = s.IssuesCreated + s.IssuesVotedOn + s.CommentsPosted
	return s
}
