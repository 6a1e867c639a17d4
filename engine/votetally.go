package engine

import (
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoteChange describes what CastVote did to a tally.
type VoteChange struct {
	// Added is true for a first ballot, false for a priority switch.
	Added    bool
	Previous models.Priority
	Priority models.Priority
}

// CastVote records voter's ballot on the issue and recomputes the
// response deadline. A first ballot increments both the priority bucket and
// the total; a ballot with a different priority moves one count between
// buckets and leaves the total alone. Repeating the same priority fails
// with ErrDuplicateVote and leaves the issue untouched.
func CastVote(issue *models.Issue, voter *models.User, priority models.Priority, now time.Time) (VoteChange, error) {
	if !priority.Valid() {
		return VoteChange{}, Invalid("invalid priority value %q", priority)
	}
	if !voter.IsVerified() {
		return VoteChange{}, Forbidden("account not verified")
	}

	votes := &issue.Votes
	if votes.PerPriority == nil {
		votes.PerPriority = make(map[models.Priority]int, len(models.Priorities))
	}

	change := VoteChange{Priority: priority}
	if idx := votes.BallotIndex(voter.ID); idx >= 0 {
		prev := votes.Ballots[idx].Priority
		if prev == priority {
			return VoteChange{}, ErrDuplicateVote
		}
		votes.PerPriority[prev]--
		votes.PerPriority[priority]++
		votes.Ballots[idx].Priority = priority
		change.Previous = prev
	} else {
		votes.Ballots = append(votes.Ballots, models.Ballot{User: voter.ID, Priority: priority})
		votes.PerPriority[priority]++
		votes.Total++
		change.Added = true
	}

	issue.UpdatedAt = now
	Refresh(issue, now)
	return change, nil
}

// TallyConsistent reports whether total, bucket sum and ballot count agree
// and no user holds two ballots.
func TallyConsistent(v models.Votes) bool {
	sum := 0
	for _, n := range v.PerPriority {
		if n < 0 {
			return false
		}
		sum += n
	}
	if sum != v.Total || len(v.Ballots) != v.Total {
		return false
	}
	seen := make(map[primitive.ObjectID]bool, len(v.Ballots))
	for _, b := range v.Ballots {
		if seen[b.User] {
			return false
		}
		seen[b.User] = true
	}
	return true
}
