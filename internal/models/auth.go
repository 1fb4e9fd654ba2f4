package models

// Auth contains the result of a successful login
type Auth struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// IsManager reports whether the account belongs to a manager rather than an engineer
func (a *Auth) IsManager() bool {
	return a != nil && equalFoldTrim(a.User.Role, "manager")
}
