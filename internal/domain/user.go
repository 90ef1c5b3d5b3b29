package domain

// User is a registered account. PasswordHash never leaves the service
// layer; handlers respond with UserResponse.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}
