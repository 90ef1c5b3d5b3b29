package domain

import "strings"

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	if blank(r.Username) || blank(r.Email) || blank(r.Password) {
		return &ValidationError{Message: "username, email and password are required"}
	}
	if !strings.Contains(r.Email, "@") || !strings.Contains(r.Email, ".") {
		return &ValidationError{Message: "invalid email format"}
	}
	return validatePassword(r.Password)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if blank(r.Email) || blank(r.Password) {
		return &ValidationError{Message: "email and password are required"}
	}
	return nil
}

type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationError reports a malformed or incomplete request. Message is
// safe to return to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validatePassword(p string) error {
	if len(p) > MaxPasswordBytes {
		return &ValidationError{Message: "password must be at most 72 bytes"}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
