package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tyredash/internal/models"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		email, password string
		ok              bool
	}{
		{"eng@apollo.test", "pw", true},
		{"", "pw", false},
		{"eng@apollo.test", "", false},
		{"not-an-email", "pw", false},
		{"a b@c.d", "pw", false},
		{"eng@apollo", "pw", false},
	}
	for _, tt := range tests {
		err := ValidateCredentials(tt.email, tt.password)
		if tt.ok {
			assert.NoError(t, err, tt.email)
		} else {
			assert.ErrorIs(t, err, models.ErrInvalidCredentials, tt.email)
		}
	}
}

func TestLogin_StoresToken(t *testing.T) {
	fb, srv := newFakeBackend(t)
	token := jwt(t, map[string]any{"role": "manager"})
	fb.handle("POST /api/login", 200, `{"success": true, "token": "`+token+`", "user": {"email": "m@apollo.test", "name": "Mira"}}`)

	c := loggedInClient(t, srv.URL, "")
	auth, err := c.Login(context.Background(), "m@apollo.test", "secret")
	require.NoError(t, err)

	assert.Equal(t, token, auth.Token)
	assert.Equal(t, "Mira", auth.User.Name)
	assert.Equal(t, "manager", auth.User.Role)
	assert.True(t, auth.IsManager())

	stored, err := c.tokenStore.GetToken()
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestLogin_TokenFromCookie(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.routes["POST /api/login"] = func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "cookie-tok"})
		_, _ = w.Write([]byte(`{"success": true}`))
	}

	auth, err := loggedInClient(t, srv.URL, "").Login(context.Background(), "e@apollo.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, "cookie-tok", auth.Token)
	assert.Equal(t, "e@apollo.test", auth.User.Email)
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"success false with message", 200, `{"success": false, "message": "Account locked"}`, "Account locked"},
		{"success false without message", 200, `{"success": false}`, "Invalid email or password"},
		{"unauthorized", 401, `{"message": "Bad password"}`, "Bad password"},
		{"unauthorized without body", 401, ``, "Login failed"},
		{"no token", 200, `{"success": true}`, "Invalid login response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, srv := newFakeBackend(t)
			fb.handle("POST /api/login", tt.status, tt.body)

			c := loggedInClient(t, srv.URL, "")
			_, err := c.Login(context.Background(), "e@apollo.test", "pw")

			var le *LoginError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.message, le.Message)

			_, err = c.tokenStore.GetToken()
			assert.ErrorIs(t, err, models.ErrNotLoggedIn)
		})
	}
}

func TestLogin_ValidationSkipsNetwork(t *testing.T) {
	fb, srv := newFakeBackend(t)

	_, err := loggedInClient(t, srv.URL, "").Login(context.Background(), "bad", "pw")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Empty(t, fb.seen())
}

func TestLogout_ClearsToken(t *testing.T) {
	c := loggedInClient(t, "http://unused", "tok")
	require.NoError(t, c.Logout())
	_, err := c.tokenStore.GetToken()
	assert.ErrorIs(t, err, models.ErrNotLoggedIn)
}
