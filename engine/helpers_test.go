package engine

import (
	"testing"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newUser(role models.Role, verified bool) *models.User {
	return &models.User{
		ID:              primitive.NewObjectID(),
		Role:            role,
		IsEmailVerified: verified,
		IsPhoneVerified: verified,
		CreatedAt:       testNow,
	}
}

func newTestIssue() *models.Issue {
	return models.NewIssue(primitive.NewObjectID(), "Broken streetlight",
		"The streetlight on the corner has been out for a week.",
		models.Location{IsNationwide: true}, nil, testNow)
}

func assertTally(t *testing.T, v models.Votes) {
	t.Helper()
	if !TallyConsistent(v) {
		t.Fatalf("tally inconsistent: total=%d perPriority=%v ballots=%d", v.Total, v.PerPriority, len(v.Ballots))
	}
}
