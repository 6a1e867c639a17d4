package models

// Role enum
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleOfficial  Role = "official"
)

// Capability names one permission checked by the core.
type Capability int

const (
	// CapAddResolutionStep allows appending to and completing steps in an
	// issue's resolution ledger.
	CapAddResolutionStep Capability = iota
	// CapOfficialComment marks comments written by the role as official.
	CapOfficialComment
	// CapOverrideIssue allows setting status and escalation directly and
	// editing issues the actor did not author.
	CapOverrideIssue
	// CapModerateComments allows editing and deleting any comment.
	CapModerateComments
	// CapDeleteAnyIssue allows deleting issues the actor did not author.
	CapDeleteAnyIssue
	// CapManageUsers allows role changes and badge awards.
	CapManageUsers
)

var capabilities = map[Role]map[Capability]bool{
	RoleUser: {},
	RoleModerator: {
		CapOverrideIssue:    true,
		CapModerateComments: true,
	},
	RoleOfficial: {
		CapAddResolutionStep: true,
		CapOfficialComment:   true,
		CapOverrideIssue:     true,
	},
	RoleAdmin: {
		CapAddResolutionStep: true,
		CapOfficialComment:   true,
		CapOverrideIssue:     true,
		CapModerateComments:  true,
		CapDeleteAnyIssue:    true,
		CapManageUsers:       true,
	},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Can reports whether the role carries capability c. Unknown roles carry
// nothing.
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}

// RolesWith lists the roles that carry c, in a stable order.
func RolesWith(c Capability) []Role {
	var roles []Role
	for _, r := range []Role{RoleUser, RoleModerator, RoleOfficial, RoleAdmin} {
		if r.Can(c) {
			roles = append(roles, r)
		}
	}
	return roles
}
