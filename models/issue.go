package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "Pending"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
)

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case Pending, InProgress, Resolved:
		return true
	}
	return false
}

// StepStatus enum
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
)

func (s StepStatus) Valid() bool {
	return s == StepPending || s == StepCompleted
}

// Coordinates is an optional map pin attached to an issue location.
type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Location places an issue either in a region or nationwide.
type Location struct {
	Region       *primitive.ObjectID `bson:"region,omitempty" json:"region,omitempty"`
	IsNationwide bool                `bson:"isNationwide" json:"isNationwide"`
	Coordinates  *Coordinates        `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// ResolutionStep is one logged unit of progress toward resolving an issue.
type ResolutionStep struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Description string             `bson:"description" json:"description"`
	Status      StepStatus         `bson:"status" json:"status"`
	Date        time.Time          `bson:"date" json:"date"`
	UpdatedBy   primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title            string               `bson:"title" json:"title"`
	Description      string               `bson:"description" json:"description"`
	Location         Location             `bson:"location" json:"location"`
	Author           primitive.ObjectID   `bson:"author" json:"author"`
	Status           IssueStatus          `bson:"status" json:"status"`
	Votes            Votes                `bson:"votes" json:"votes"`
	MediaURLs        []string             `bson:"mediaUrls" json:"mediaUrls"`
	Comments         []primitive.ObjectID `bson:"comments" json:"comments"`
	Subscribers      []primitive.ObjectID `bson:"subscribers" json:"subscribers"`
	ResponseDeadline *time.Time           `bson:"responseTimeExpected,omitempty" json:"responseTimeExpected,omitempty"`
	IsEscalated      bool                 `bson:"isEscalated" json:"isEscalated"`
	ResolutionSteps  []ResolutionStep     `bson:"resolutionSteps" json:"resolutionSteps"`
	LastUpdatedBy    *primitive.ObjectID  `bson:"lastUpdatedBy,omitempty" json:"lastUpdatedBy,omitempty"`
	Version          int64                `bson:"version" json:"-"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NewIssue returns a Pending issue with an empty tally.
func NewIssue(author primitive.ObjectID, title, description string, loc Location, mediaURLs []string, now time.Time) *Issue {
	if mediaURLs == nil {
		mediaURLs = []string{}
	}
	return &Issue{
		ID:              primitive.NewObjectID(),
		Title:           title,
		Description:     description,
		Location:        loc,
		Author:          author,
		Status:          Pending,
		Votes:           NewVotes(),
		MediaURLs:       mediaURLs,
		Comments:        []primitive.ObjectID{},
		Subscribers:     []primitive.ObjectID{},
		ResolutionSteps: []ResolutionStep{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsSubscribed reports whether user follows the issue.
func (i *Issue) IsSubscribed(user primitive.ObjectID) bool {
	for _, s := range i.Subscribers {
		if s == user {
			return true
		}
	}
	return false
}

// StepIndex returns the position of the step with the given id, or -1.
func (i *Issue) StepIndex(id primitive.ObjectID) int {
	for idx := range i.ResolutionSteps {
		if i.ResolutionSteps[idx].ID == id {
			return idx
		}
	}
	return -1
}
