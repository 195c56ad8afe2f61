// Package access holds the role hierarchy and the ownership policy that
// gates every song mutation. Role comparison is the only authorization
// primitive; every threshold lives here as a named constant so call sites
// never compare against magic numbers.
package access

import "github.com/google/uuid"

// Role is an ordered privilege level. Higher values carry more privilege.
type Role int

const (
	RoleUser Role = iota + 1
	RoleModerator
	RoleAdmin
)

const (
	// MinModifyRole lets non-owners edit songs.
	MinModifyRole = RoleModerator
	// MinDeleteRole gates song deletion regardless of ownership.
	MinDeleteRole = RoleModerator
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Viewer identifies the authenticated caller for a single request. It is
// produced by the token layer and never persisted.
type Viewer struct {
	ID   uuid.UUID
	Role Role
}

// CanModify reports whether the viewer may change the song uploaded by the
// given user: the uploader themselves, or anyone at MinModifyRole and above.
// Update, delete and the view's edit flag all route through this rule.
func CanModify(v Viewer, uploadedBy uuid.UUID) bool {
	return v.ID == uploadedBy || v.Role >= MinModifyRole
}

// HasRole reports whether the viewer meets the given role threshold.
func HasRole(v Viewer, min Role) bool {
	return v.Role >= min
}
