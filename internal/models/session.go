package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the kind of account a user holds
type Role string

const (
	RoleStudent Role = "Student"
	RoleMentor  Role = "Mentor"
)

// ParseRole maps backend/user role strings onto Role.
// Matching is case-insensitive; anything unrecognized is a Student.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleMentor)) {
		return RoleMentor
	}
	return RoleStudent
}

// UserID is the backend's opaque user identifier.
// The backend sends integers; strings are accepted too.
type UserID string

// UnmarshalJSON accepts a JSON number or string
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a number or string: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// String implements fmt.Stringer
func (id UserID) String() string { return string(id) }

// Session is the in-memory record of the authenticated user
type Session struct {
	Authenticated bool   `json:"authenticated"`
	UserID        UserID `json:"userId,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          Role   `json:"role,omitempty"`
}

// Page is one of the fixed set of client pages
type Page string

const (
	PageAuth            Page = "auth"
	PageMain            Page = "main"
	PageMentorDashboard Page = "mentorDashboard"
	PageProfile         Page = "profile"
)

// Valid reports whether p belongs to the fixed page set
func (p Page) Valid() bool {
	switch p {
	case PageAuth, PageMain, PageMentorDashboard, PageProfile:
		return true
	}
	return false
}

// HomePage returns the landing page for a role after authentication
func HomePage(r Role) Page {
	if r == RoleMentor {
		return PageMentorDashboard
	}
	return PageMain
}

// AuthMode selects the authentication endpoint
type AuthMode string

const (
	AuthModeLogin  AuthMode = "login"
	AuthModeSignup AuthMode = "signup"
)

// Credentials are the secrets typed on the auth page
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupCredentials apply the stricter email shape used on signup
type SignupCredentials struct {
	Email    string `validate:"required,peeremail"`
	Password string `validate:"required"`
}

// ProfileFields are the optional profile values sent with authentication
type ProfileFields struct {
	Name           string `json:"name"`
	Role           Role   `json:"role"`
	School         string `json:"school"`
	PreviousSchool string `json:"previousSchool"`
	AreaOfStudy    string `json:"areaOfStudy"`
}
