package engine

import (
	"time"

	"civicpulse-be/models"
)

// CheckEscalation raises the issue's escalation flag once an unresolved
// issue is past its response deadline. The flag never drops back on its own:
// only resolution or a privileged override clears it.
func CheckEscalation(issue *models.Issue, now time.Time) bool {
	if issue.Status == models.Resolved {
		issue.IsEscalated = false
		return false
	}
	if issue.ResponseDeadline != nil && now.After(*issue.ResponseDeadline) {
		issue.IsEscalated = true
	}
	return issue.IsEscalated
}

// Refresh recomputes every derived field of the issue: the response
// deadline from the current tally, then escalation. Every mutation of votes,
// status or the resolution ledger ends with a call to Refresh.
func Refresh(issue *models.Issue, now time.Time) {
	deadline := ResponseDeadline(issue.Votes, now)
	issue.ResponseDeadline = &deadline
	CheckEscalation(issue, now)
}
