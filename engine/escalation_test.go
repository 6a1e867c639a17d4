package engine

import (
	"testing"
	"time"

	"civicpulse-be/models"
)

func TestCheckEscalation(t *testing.T) {
	day := 24 * time.Hour

	t.Run("no deadline never escalates", func(t *testing.T) {
		issue := newTestIssue()
		if CheckEscalation(issue, testNow.Add(30*day)) {
			t.Error("escalated without a deadline")
		}
	})

	t.Run("before deadline", func(t *testing.T) {
		issue := newTestIssue()
		Refresh(issue, testNow)
		if CheckEscalation(issue, testNow.Add(7*day)) {
			t.Error("escalated exactly at the deadline")
		}
	})

	t.Run("past deadline escalates and stays", func(t *testing.T) {
		issue := newTestIssue()
		Refresh(issue, testNow)
		if !CheckEscalation(issue, testNow.Add(7*day+time.Second)) {
			t.Fatal("not escalated past the deadline")
		}
		// A later vote pushes the deadline out again; the flag holds.
		if _, err := CastVote(issue, newUser(models.RoleUser, true), models.Important, testNow.Add(8*day)); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
		if !issue.IsEscalated {
			t.Error("escalation cleared by a vote")
		}
	})

	t.Run("resolved issues are never escalated", func(t *testing.T) {
		issue := newTestIssue()
		Refresh(issue, testNow)
		issue.IsEscalated = true
		issue.Status = models.Resolved
		if CheckEscalation(issue, testNow.Add(30*day)) || issue.IsEscalated {
			t.Error("resolved issue still escalated")
		}
	})
}

func TestOverrideStatus(t *testing.T) {
	issue := newTestIssue()
	Refresh(issue, testNow)
	CheckEscalation(issue, testNow.Add(10*24*time.Hour))

	citizen := newUser(models.RoleUser, true)
	status := models.InProgress
	if err := OverrideStatus(issue, citizen, &status, nil, testNow); err == nil {
		t.Fatal("citizen override allowed")
	}

	moderator := newUser(models.RoleModerator, true)
	cleared := false
	if err := OverrideStatus(issue, moderator, &status, &cleared, testNow.Add(10*24*time.Hour)); err != nil {
		t.Fatalf("OverrideStatus: %v", err)
	}
	if issue.Status != models.InProgress || issue.IsEscalated {
		t.Errorf("status=%q escalated=%v, want In Progress and cleared", issue.Status, issue.IsEscalated)
	}
	if issue.LastUpdatedBy == nil || *issue.LastUpdatedBy != moderator.ID {
		t.Error("LastUpdatedBy not set to the moderator")
	}

	bogus := models.IssueStatus("Closed")
	if err := OverrideStatus(issue, moderator, &bogus, nil, testNow); err == nil {
		t.Error("unknown status accepted")
	}
}
