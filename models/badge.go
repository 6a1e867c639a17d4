package models

// BadgeType enum
type BadgeType string

const (
	BadgeCommunityHero    BadgeType = "Community Hero"
	BadgeRegionalAdvocate BadgeType = "Regional Advocate"
	BadgeIssueSolver      BadgeType = "Issue Solver"
	BadgeActiveVoter      BadgeType = "Active Voter"
	BadgeVerifiedResident BadgeType = "Verified Resident"
)

// BadgeTypes is the closed set of awardable badges.
var BadgeTypes = []BadgeType{
	BadgeCommunityHero,
	BadgeRegionalAdvocate,
	BadgeIssueSolver,
	BadgeActiveVoter,
	BadgeVerifiedResident,
}

func (b BadgeType) Valid() bool {
	for _, known := range BadgeTypes {
		if b == known {
			return true
		}
	}
	return false
}
