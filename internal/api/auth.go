package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"tyredash/internal/models"
)

const loginPath = "/api/login"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LoginError carries the message the backend gave for a rejected login
type LoginError struct {
	StatusCode int
	Message    string
}

func (e *LoginError) Error() string {
	return e.Message
}

// ValidateCredentials performs the checks done before contacting the server
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: please enter both email and password", models.ErrInvalidCredentials)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: please enter a valid email address", models.ErrInvalidCredentials)
	}
	return nil
}

// Login authenticates with the server and stores the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*models.Auth, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	data, resp, err := c.do(ctx, http.MethodPost, loginPath, map[string]string{
		"email":    email,
		"password": password,
	})

	var response struct {
		Success *bool       `json:"success"`
		Token   string      `json:"token"`
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	// Rejections still carry a JSON message worth showing.
	decodeErr := json.Unmarshal(data, &response)

	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, &LoginError{StatusCode: se.StatusCode, Message: messageOr(response.Message, "Login failed")}
		}
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	if response.Success != nil && !*response.Success {
		return nil, &LoginError{StatusCode: resp.StatusCode, Message: messageOr(response.Message, "Invalid email or password")}
	}

	token := findAuthToken(resp.Cookies(), response.Token)
	if token == "" {
		return nil, &LoginError{StatusCode: resp.StatusCode, Message: "Invalid login response"}
	}

	if c.tokenStore != nil {
		if err := c.tokenStore.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save auth token: %w", err)
		}
	}

	auth := &models.Auth{Token: token, User: response.User}
	if auth.User.Email == "" {
		auth.User.Email = email
	}
	if auth.User.Role == "" {
		if claims, ok := decodeClaims(token); ok {
			auth.User.Role = firstString(claims, "role")
		}
	}
	return auth, nil
}

// Logout clears the local token. Pins and touches are kept.
func (c *Client) Logout() error {
	if c.tokenStore == nil {
		return nil
	}
	return c.tokenStore.ClearToken()
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}

// findAuthToken prefers the token in the body, then an auth-looking cookie
func findAuthToken(cookies []*http.Cookie, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}

	for _, cookie := range cookies {
		if cookie.Value == "" {
			continue
		}
		name := strings.ToLower(cookie.Name)
		switch {
		case strings.Contains(name, "auth"),
			strings.Contains(name, "token"),
			strings.Contains(name, "session"),
			strings.Contains(name, "jwt"):
			return cookie.Value
		}
	}
	return ""
}
