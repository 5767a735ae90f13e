package models

import "time"

// Busy lists the operations currently awaiting the backend
type Busy struct {
	Authenticate   bool `json:"authenticate"`
	LoadProfile    bool `json:"loadProfile"`
	SaveProfile    bool `json:"saveProfile"`
	Search         bool `json:"search"`
	ChangePassword bool `json:"changePassword"`
}

// PendingNavigation is a page change scheduled after authentication
type PendingNavigation struct {
	Page Page      `json:"page"`
	At   time.Time `json:"at"`
}

// View is a read-only snapshot of a controller.
// Page-owned data is present only while its page is active.
type View struct {
	Page         Page               `json:"page"`
	Session      Session            `json:"session"`
	Profile      *ProfileDraft      `json:"profile,omitempty"`
	Criteria     *SearchCriteria    `json:"criteria,omitempty"`
	Mentors      []MentorResult     `json:"mentors,omitempty"`
	Searched     bool               `json:"searched"`
	Notification *Notification      `json:"notification,omitempty"`
	Busy         Busy               `json:"busy"`
	Pending      *PendingNavigation `json:"pendingNavigation,omitempty"`
}
