package engine

import (
	"time"

	"civicpulse-be/models"
)

const (
	baselineDays      = 7
	highVolumeVotes   = 100
	massiveVoteVolume = 500
)

// ResponseDays derives the response commitment in days from a tally. The
// majority priority, checked Urgent first, picks the SLA baseline; more than
// 100 and more than 500 votes each shave another day, never below one.
func ResponseDays(v models.Votes) int {
	days := baselineDays
	if v.Total > 0 {
		for _, p := range models.Priorities {
			if 2*v.PerPriority[p] > v.Total {
				days = p.SLADays()
				break
			}
		}
	}
	if v.Total > highVolumeVotes {
		days = max(days-1, 1)
	}
	if v.Total > massiveVoteVolume {
		days = max(days-1, 1)
	}
	return days
}

// ResponseDeadline is now plus ResponseDays worth of 24h periods.
func ResponseDeadline(v models.Votes, now time.Time) time.Time {
	return now.Add(time.Duration(ResponseDays(v)) * 24 * time.Hour)
}
