package engine

import (
	"testing"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func tally(counts map[models.Priority]int) models.Votes {
	v := models.NewVotes()
	for _, p := range models.Priorities {
		for i := 0; i < counts[p]; i++ {
			v.Ballots = append(v.Ballots, models.Ballot{User: primitive.NewObjectID(), Priority: p})
			v.PerPriority[p]++
			v.Total++
		}
	}
	return v
}

func TestResponseDays(t *testing.T) {
	tests := []struct {
		name   string
		counts map[models.Priority]int
		want   int
	}{
		{"no votes uses baseline", nil, 7},
		{"urgent majority", map[models.Priority]int{models.Urgent: 60}, 1},
		{"very important majority", map[models.Priority]int{models.VeryImportant: 3, models.Important: 2}, 3},
		{"important majority", map[models.Priority]int{models.Important: 4, models.Urgent: 1}, 5},
		{"exact half is not a majority", map[models.Priority]int{models.Urgent: 5, models.Important: 5}, 7},
		{"no majority", map[models.Priority]int{models.Urgent: 4, models.VeryImportant: 3, models.Important: 3}, 7},
		{"volume discount floors at one", map[models.Priority]int{models.Urgent: 80, models.Important: 70}, 1},
		{"volume discount on important", map[models.Priority]int{models.Important: 80, models.Urgent: 70}, 4},
		{"exactly 100 votes has no discount", map[models.Priority]int{models.Important: 100}, 5},
		{"both discounts stack", map[models.Priority]int{models.Important: 400, models.Urgent: 200}, 3},
		{"both discounts without majority", map[models.Priority]int{models.Important: 250, models.Urgent: 200, models.VeryImportant: 150}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResponseDays(tally(tt.counts)); got != tt.want {
				t.Errorf("ResponseDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResponseDeadlineTracksVotes(t *testing.T) {
	issue := newTestIssue()
	Refresh(issue, testNow)
	if want := testNow.Add(7 * 24 * time.Hour); !issue.ResponseDeadline.Equal(want) {
		t.Fatalf("empty deadline = %v, want %v", issue.ResponseDeadline, want)
	}

	for i := 0; i < 60; i++ {
		if _, err := CastVote(issue, newUser(models.RoleUser, true), models.Urgent, testNow); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
	}
	if want := testNow.Add(24 * time.Hour); !issue.ResponseDeadline.Equal(want) {
		t.Errorf("deadline after 60 urgent votes = %v, want %v", issue.ResponseDeadline, want)
	}
}
