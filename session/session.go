package session

import "errors"

var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrEmptyToken    = errors.New("empty credential token")
	ErrEmptyIdentity = errors.New("empty identity id")
)

// Role represents the dashboard role an authenticated identity holds.
type Role string

const (
	RoleDriver Role = "DRIVER"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"

	// RoleNone is the role of an unauthenticated session.
	RoleNone Role = ""
)

// Valid reports whether r is one of the recognized authenticated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Session is an immutable snapshot of the authenticated identity.
// The zero value is the unauthenticated session. Token is non-empty
// if and only if Role is a valid authenticated role.
type Session struct {
	IdentityID string `json:"identity_id,omitempty"`
	Token      string `json:"token,omitempty"` // Opaque bearer credential - never logged
	Role       Role   `json:"role,omitempty"`
}

// Authenticated reports whether the session holds a valid credential.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Role.Valid()
}

func (s Session) validate() error {
	if s.IdentityID == "" {
		return ErrEmptyIdentity
	}
	if s.Token == "" {
		return ErrEmptyToken
	}
	if !s.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
