package domain

// Role is a tagged capability passed per call. Each operation declares the
// exact role it accepts; there is no role hierarchy.
type Role string

const (
	// RoleParticipant covers creators, donors, and voters. What a
	// participant may do depends on the proposal, not the role.
	RoleParticipant Role = "participant"

	// RoleOwner is the platform owner: administrative overrides and
	// milestone decisions.
	RoleOwner Role = "owner"
)

// Actor is the authenticated caller of an operation: an opaque address plus
// the role capability it presented.
type Actor struct {
	Address Address
	Role    Role
}

// IsOwner reports whether the actor holds the owner capability.
func (a Actor) IsOwner() bool {
	return a.Role == RoleOwner
}
