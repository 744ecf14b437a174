package types

// LoginResponse is returned by the user supervisor after a login attempt.
// The HTTP layer attaches the JWT on success.
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
	UserID  string `json:"userId"`
}
