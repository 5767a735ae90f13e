package models

// ProfileDraft is the editable local copy of a user's profile
type ProfileDraft struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	CurrentSchool  string `json:"currentSchool"`
	PreviousSchool string `json:"previousSchool"`
	FieldOfStudy   string `json:"fieldOfStudy"`
	Bio            string `json:"bio"`
}

// SearchCriteria holds the mentor-search form state
type SearchCriteria struct {
	TargetUniversity string `json:"targetUniversity"`
}

// MentorResult is a read-only mentor record returned by a search
type MentorResult struct {
	ID             UserID `json:"id,omitempty"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	University     string `json:"university"`
	AreaOfStudy    string `json:"areaOfStudy"`
	Bio            string `json:"bio"`
	PreviousSchool string `json:"previousSchool,omitempty"`
}
