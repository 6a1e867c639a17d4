package engine

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"civicpulse-be/models"
)

func TestCastVoteFirstBallot(t *testing.T) {
	issue := newTestIssue()
	voter := newUser(models.RoleUser, true)

	change, err := CastVote(issue, voter, models.Urgent, testNow)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if !change.Added {
		t.Errorf("change.Added = false, want true")
	}
	if issue.Votes.Total != 1 || issue.Votes.PerPriority[models.Urgent] != 1 {
		t.Errorf("tally = %+v, want one urgent vote", issue.Votes)
	}
	if issue.ResponseDeadline == nil {
		t.Fatal("ResponseDeadline not set after vote")
	}
	assertTally(t, issue.Votes)
}

func TestCastVoteSwitchKeepsTotal(t *testing.T) {
	issue := newTestIssue()
	voter := newUser(models.RoleUser, true)

	if _, err := CastVote(issue, voter, models.Important, testNow); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	change, err := CastVote(issue, voter, models.Urgent, testNow)
	if err != nil {
		t.Fatalf("switch vote: %v", err)
	}
	if change.Added || change.Previous != models.Important {
		t.Errorf("change = %+v, want switch from Important", change)
	}
	if issue.Votes.Total != 1 {
		t.Errorf("Total = %d, want 1", issue.Votes.Total)
	}
	if issue.Votes.PerPriority[models.Important] != 0 || issue.Votes.PerPriority[models.Urgent] != 1 {
		t.Errorf("PerPriority = %v", issue.Votes.PerPriority)
	}
	if issue.Votes.Ballots[0].Priority != models.Urgent {
		t.Errorf("ballot priority = %q, want Urgent", issue.Votes.Ballots[0].Priority)
	}
	assertTally(t, issue.Votes)
}

func TestCastVoteDuplicateRejected(t *testing.T) {
	issue := newTestIssue()
	voter := newUser(models.RoleUser, true)

	if _, err := CastVote(issue, voter, models.VeryImportant, testNow); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	before := issue.Votes.Total
	beforeDeadline := *issue.ResponseDeadline

	_, err := CastVote(issue, voter, models.VeryImportant, testNow.Add(31*time.Minute))
	if !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("err = %v, want ErrDuplicateVote", err)
	}
	if issue.Votes.Total != before || issue.Votes.PerPriority[models.VeryImportant] != 1 {
		t.Errorf("tally changed after duplicate: %+v", issue.Votes)
	}
	if !issue.ResponseDeadline.Equal(beforeDeadline) {
		t.Errorf("deadline changed after duplicate vote")
	}
}

func TestCastVotePreconditions(t *testing.T) {
	tests := []struct {
		name     string
		verified bool
		priority models.Priority
		want     error
	}{
		{"unverified voter", false, models.Urgent, ErrPermission},
		{"unknown priority", true, models.Priority("Critical"), ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := newTestIssue()
			_, err := CastVote(issue, newUser(models.RoleUser, tt.verified), tt.priority, testNow)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if issue.Votes.Total != 0 || len(issue.Votes.Ballots) != 0 {
				t.Errorf("tally mutated on failure: %+v", issue.Votes)
			}
		})
	}
}

func TestCastVoteRandomSequenceKeepsInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	issue := newTestIssue()
	voters := make([]*models.User, 25)
	for i := range voters {
		voters[i] = newUser(models.RoleUser, true)
	}
	distinct := map[int]bool{}

	for i := 0; i < 500; i++ {
		n := rng.Intn(len(voters))
		p := models.Priorities[rng.Intn(len(models.Priorities))]
		_, err := CastVote(issue, voters[n], p, testNow)
		if err != nil && !errors.Is(err, ErrDuplicateVote) {
			t.Fatalf("step %d: unexpected error %v", i, err)
		}
		distinct[n] = true
		assertTally(t, issue.Votes)
	}
	if issue.Votes.Total != len(distinct) {
		t.Errorf("Total = %d, want %d distinct voters", issue.Votes.Total, len(distinct))
	}
}
