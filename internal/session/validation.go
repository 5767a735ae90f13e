package session

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/transferpeer/peerconnect/internal/models"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
)

const (
	msgCredentialsRequired = "Email and password are required"
	msgInvalidEmail        = "Please enter a valid email address"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("peeremail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsValidEmail reports whether s has the local@domain.tld shape accepted on signup.
// Only printable ASCII without spaces is allowed, with exactly one '@' and at
// least one '.' in the domain that neither starts nor ends it.
func IsValidEmail(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}

	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}

	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	return !strings.HasPrefix(domain, ".")
}

// validateCredentials returns an invalid-input error whose text is the
// notification shown to the user
func validateCredentials(mode models.AuthMode, creds models.Credentials) error {
	var target any = creds
	if mode == models.AuthModeSignup {
		target = models.SignupCredentials{Email: creds.Email, Password: creds.Password}
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerrors.InvalidInputError("credentials", msgCredentialsRequired)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return pkgerrors.InvalidInputError(strings.ToLower(fe.Field()), msgCredentialsRequired)
		}
	}
	return pkgerrors.InvalidInputError("email", msgInvalidEmail)
}
