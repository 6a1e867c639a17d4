package engine

import (
	"math"
	"time"

	"civicpulse-be/models"
)

const maxTrustScore = 100

// TrustScore derives a user's reputation in [0, 100] from verification
// flags, capped activity counts, whole days of tenure and badges held. It
// reads nothing but the user and now, so equal inputs give equal scores.
func TrustScore(u *models.User, now time.Time) int {
	score := 0.0
	if u.IsEmailVerified {
		score += 10
	}
	if u.IsPhoneVerified {
		score += 15
	}
	if u.IsIDVerified {
		score += 25
	}

	score += math.Min(float64(len(u.IssuesCreated))*2, 20)
	score += math.Min(float64(len(u.CommentsPosted))*0.5, 15)
	score += math.Min(float64(len(u.IssuesVotedOn))*0.2, 10)

	if ageDays := math.Floor(now.Sub(u.CreatedAt).Hours() / 24); ageDays > 0 {
		score += math.Min(ageDays*0.1, 10)
	}

	score += 5 * float64(distinctBadges(u.Badges))

	// Halves round up.
	rounded := int(math.Floor(score + 0.5))
	return min(max(rounded, 0), maxTrustScore)
}

func distinctBadges(badges []models.BadgeType) int {
	seen := make(map[models.BadgeType]bool, len(badges))
	for _, b := range badges {
		seen[b] = true
	}
	return len(seen)
}

// AwardBadge adds b to the user's badge set and recomputes the trust
// score from scratch.
func AwardBadge(u *models.User, b models.BadgeType, now time.Time) error {
	if !b.Valid() {
		return ErrInvalidBadge
	}
	if u.HasBadge(b) {
		return ErrDuplicateBadge
	}
	u.Badges = append(u.Badges, b)
	u.TrustScore = TrustScore(u, now)
	return nil
}
