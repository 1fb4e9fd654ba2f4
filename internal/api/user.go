package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tyredash/internal/models"
)

// Routes tried, in order, for the signed-in user
var currentUserPaths = []string{"/api/me", "/api/auth/me", "/api/users/me", "/users/me"}

// Routes tried, in order, to look up a display name by email
var userByEmailPaths = []string{"/api/users/by-email?email=%s", "/api/users?email=%s"}

// CurrentUser works out who is signed in. It asks the backend first, then
// reads the token claims, then falls back to the profile saved at login. The
// result is never nil; fields the sources could not provide stay empty.
func (c *Client) CurrentUser(ctx context.Context) *models.User {
	resolvers := make([]Resolver[*models.User], 0, len(currentUserPaths)+2)
	for _, path := range currentUserPaths {
		resolvers = append(resolvers, c.userFromRoute(path))
	}
	resolvers = append(resolvers, c.userFromToken, c.userFromProfile)

	user, ok := FirstOf(ctx, resolvers...)
	if !ok {
		user = &models.User{}
	}

	if user.Name == "" && user.FullName == "" && user.Email != "" {
		if name, ok := c.NameByEmail(ctx, user.Email); ok {
			user.Name = name
		}
	}
	return user
}

// NameByEmail looks up a display name for email
func (c *Client) NameByEmail(ctx context.Context, email string) (string, bool) {
	if strings.TrimSpace(email) == "" {
		return "", false
	}

	resolvers := make([]Resolver[string], 0, len(userByEmailPaths))
	for _, tmpl := range userByEmailPaths {
		path := strings.Replace(tmpl, "%s", url.QueryEscape(email), 1)
		resolvers = append(resolvers, func(ctx context.Context) (string, bool) {
			u, ok := c.fetchUser(ctx, path)
			if !ok {
				return "", false
			}
			if u.Name != "" {
				return u.Name, true
			}
			return u.FullName, u.FullName != ""
		})
	}
	return FirstOf(ctx, resolvers...)
}

func (c *Client) userFromRoute(path string) Resolver[*models.User] {
	return func(ctx context.Context) (*models.User, bool) {
		u, ok := c.fetchUser(ctx, path)
		if !ok || !u.HasIdentity() {
			return nil, false
		}
		return u, true
	}
}

// fetchUser reads a user payload that is either wrapped in "user" or top level
func (c *Client) fetchUser(ctx context.Context, path string) (*models.User, bool) {
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, path, &raw); err != nil {
		c.logger.Debug("user route unavailable", zap.String("path", path), zap.Error(err))
		return nil, false
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	if wrapped, ok := raw["user"]; ok && len(wrapped) > 0 && wrapped[0] == '{' {
		body = wrapped
	}

	var u models.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, false
	}
	return &u, true
}

func (c *Client) userFromToken(context.Context) (*models.User, bool) {
	claims, ok := decodeClaims(c.token())
	if !ok {
		return nil, false
	}

	u := &models.User{
		Email:     firstString(claims, "email", "sub"),
		Name:      firstString(claims, "name"),
		Role:      firstString(claims, "role"),
		AvatarURL: firstString(claims, "avatar_url"),
	}
	if u.Role == "" {
		u.Role = "Engineer"
	}
	u.CreatedAt = claimTime(claims, "created_at", "iat")
	u.LastLogin = claimTime(claims, "last_login", "auth_time")
	return u, true
}

func (c *Client) userFromProfile(context.Context) (*models.User, bool) {
	if c.profile == nil {
		return nil, false
	}
	u := *c.profile
	if u.Role == "" {
		u.Role = "Engineer"
	}
	return &u, true
}

// decodeClaims returns the payload segment of a JWT without verifying it
func decodeClaims(token string) (map[string]any, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, false
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

func firstString(claims map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// claimTime prefers a literal timestamp claim, else converts an epoch-seconds claim
func claimTime(claims map[string]any, literal, epochSeconds string) models.Timestamp {
	if s := firstString(claims, literal); s != "" {
		return models.NewTimestamp(s)
	}
	if secs, ok := claims[epochSeconds].(float64); ok && secs > 0 {
		return models.NewTimestamp(time.Unix(int64(secs), 0).UTC().Format(time.RFC3339))
	}
	return models.Timestamp{}
}
