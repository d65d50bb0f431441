package auth

import "errors"

// Role represents an authorisation tier.
type Role string

const (
	// RoleOperator drives the show: edits scenes, runs playbacks, undoes.
	RoleOperator Role = "operator"

	// RoleDisplay is a render surface or monitor. It reads state, renders
	// scenes and follows the WebSocket stream.
	RoleDisplay Role = "display"
)

// ValidRoles is the set of valid roles.
var ValidRoles = []Role{RoleOperator, RoleDisplay}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Account is a configured API login.
type Account struct {
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"` // never serialised
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrForbidden          = errors.New("auth: insufficient permissions")
	ErrInvalidAccount     = errors.New("auth: invalid account")
)
