package backend

import "github.com/transferpeer/peerconnect/internal/models"

// SignupRequest is the body of POST /signup
type SignupRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	School         string `json:"school"`
	PreviousSchool string `json:"previous_school"`
	AreaOfStudy    string `json:"area_of_study"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	School      string `json:"school"`
	AreaOfStudy string `json:"area_of_study"`
}

// AuthResponse is returned by /signup and /login
type AuthResponse struct {
	ID    models.UserID `json:"id"`
	Email string        `json:"email,omitempty"`
	Role  string        `json:"role"`
}

// Profile is the profile record exchanged with /profile and /update_profile.
// Fields the backend omits or sends as null decode to "".
type Profile struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	School         string `json:"school"`
	FieldOfStudy   string `json:"field_of_study"`
	Bio            string `json:"bio"`
	PreviousSchool string `json:"previous_school"`
}

// DesiredSchoolRequest is the body of PUT /update_desired_school
type DesiredSchoolRequest struct {
	DesiredSchool string `json:"desired_school"`
}

// Ack is the generic acknowledgement body of update endpoints
type Ack struct {
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
	DesiredSchool string `json:"desired_school,omitempty"`
}

// Mentor is an entry of GET /matches
type Mentor struct {
	ID             models.UserID `json:"id,omitempty"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	University     string        `json:"university"`
	AreaOfStudy    string        `json:"area_of_study"`
	Bio            string        `json:"bio"`
	PreviousSchool string        `json:"previous_school"`
}

// PasswordRequest is the body of PUT /update_password
type PasswordRequest struct {
	Password string `json:"password"`
}

// ToDraft converts a backend profile into the local draft
func (p *Profile) ToDraft() models.ProfileDraft {
	if p == nil {
		return models.ProfileDraft{}
	}
	return models.ProfileDraft{
		Name:           p.Name,
		Email:          p.Email,
		Role:           p.Role,
		CurrentSchool:  p.School,
		PreviousSchool: p.PreviousSchool,
		FieldOfStudy:   p.FieldOfStudy,
		Bio:            p.Bio,
	}
}

// ProfileFromDraft converts the local draft into the backend payload
func ProfileFromDraft(d models.ProfileDraft) Profile {
	return Profile{
		Email:          d.Email,
		Name:           d.Name,
		Role:           d.Role,
		School:         d.CurrentSchool,
		FieldOfStudy:   d.FieldOfStudy,
		Bio:            d.Bio,
		PreviousSchool: d.PreviousSchool,
	}
}

// ToResult projects a backend mentor into a MentorResult
func (m Mentor) ToResult() models.MentorResult {
	return models.MentorResult{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		University:     m.University,
		AreaOfStudy:    m.AreaOfStudy,
		Bio:            m.Bio,
		PreviousSchool: m.PreviousSchool,
	}
}
