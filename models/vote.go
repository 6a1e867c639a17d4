package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority is the severity a voter assigns to an issue.
type Priority string

const (
	Important     Priority = "Important"
	VeryImportant Priority = "Very Important"
	Urgent        Priority = "Urgent"
)

// Priorities lists every priority from most to least severe. Response-time
// checks walk this order.
var Priorities = []Priority{Urgent, VeryImportant, Important}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case Important, VeryImportant, Urgent:
		return true
	}
	return false
}

// SLADays is the response baseline in days for an issue whose voters
// mostly chose p.
func (p Priority) SLADays() int {
	switch p {
	case Urgent:
		return 1
	case VeryImportant:
		return 3
	case Important:
		return 5
	}
	return 0
}

// Ballot is one user's recorded priority vote on one issue.
type Ballot struct {
	User     primitive.ObjectID `bson:"user" json:"user"`
	Priority Priority           `bson:"priority" json:"priority"`
}

// Votes is the tally embedded in each issue document.
type Votes struct {
	PerPriority map[Priority]int `bson:"perPriority" json:"perPriority"`
	Total       int              `bson:"total" json:"total"`
	Ballots     []Ballot         `bson:"users" json:"users"`
}

// NewVotes returns an empty tally with every priority bucket present.
func NewVotes() Votes {
	per := make(map[Priority]int, len(Priorities))
	for _, p := range Priorities {
		per[p] = 0
	}
	return Votes{PerPriority: per, Ballots: []Ballot{}}
}

// BallotIndex returns the position of user's ballot, or -1.
func (v *Votes) BallotIndex(user primitive.ObjectID) int {
	for i := range v.Ballots {
		if v.Ballots[i].User == user {
			return i
		}
	}
	return -1
}

// VoteRecord is a user's history entry for one vote cast.
type VoteRecord struct {
	Issue     primitive.ObjectID `bson:"issue" json:"issue"`
	Priority  Priority           `bson:"priority" json:"priority"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
