package models

import "encoding/json"

// User represents the signed-in engineer. Different backend routes spell
// some fields differently, so decoding accepts the known aliases.
type User struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
	LastLogin Timestamp `json:"last_login"`
}

// HasIdentity reports whether the payload carries anything worth showing
func (u *User) HasIdentity() bool {
	return u != nil && (u.Email != "" || u.Name != "" || u.Role != "")
}

func (u *User) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID          json.RawMessage `json:"id"`
		Email       string          `json:"email"`
		Name        string          `json:"name"`
		FullName    string          `json:"full_name"`
		Role        string          `json:"role"`
		AvatarURL   string          `json:"avatar_url"`
		CreatedAt   Timestamp       `json:"created_at"`
		CreatedAlt  Timestamp       `json:"createdAt"`
		LastLogin   Timestamp       `json:"last_login"`
		LastLoginAt Timestamp       `json:"last_login_at"`
		LastLoginJS Timestamp       `json:"lastLoginAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var id ProjectID
	if len(aux.ID) > 0 {
		if err := id.UnmarshalJSON(aux.ID); err != nil {
			return err
		}
	}

	*u = User{
		ID:        id.String(),
		Email:     aux.Email,
		Name:      aux.Name,
		FullName:  aux.FullName,
		Role:      aux.Role,
		AvatarURL: aux.AvatarURL,
		CreatedAt: firstTimestamp(aux.CreatedAt, aux.CreatedAlt),
		LastLogin: firstTimestamp(aux.LastLogin, aux.LastLoginAt, aux.LastLoginJS),
	}
	return nil
}

func firstTimestamp(ts ...Timestamp) Timestamp {
	for _, t := range ts {
		if !t.IsZero() {
			return t
		}
	}
	return Timestamp{}
}
