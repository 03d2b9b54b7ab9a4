package models

// User is the session identity returned by the backend on login. The client
// treats it as opaque apart from Username, which is sent as X-Username.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	RealName string `json:"realName"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
}

// AuthState is the persisted session slot.
type AuthState struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}

// LoginResult is the POST /auth/login payload.
type LoginResult struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}
