package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/worknest/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		body           map[string]string
		setup          func()
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful registration",
			body:           map[string]string{"username": "newuser", "email": "new@example.com", "password": "password123"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing password",
			body:           map[string]string{"username": "nopass", "email": "nopass@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "password",
		},
		{
			name:           "short username",
			body:           map[string]string{"username": "ab", "email": "ab@example.com", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "username",
		},
		{
			name: "duplicate username",
			body: map[string]string{"username": "existing", "email": "other@example.com", "password": "password123"},
			setup: func() {
				testutil.NewUserBuilder().WithUsername("existing").Build(t, ts.Repos)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "username already taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)
			if tt.setup != nil {
				tt.setup()
			}

			resp := ts.Do(t, http.MethodPost, "/auth/register", "", tt.body)
			defer resp.Body.Close()

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			var authResp testutil.AuthResponse
			testutil.AssertJSONResponse(t, resp, tt.expectedStatus, &authResp)
			assert.Equal(t, tt.body["username"], authResp.User.Username)
			assert.NotEmpty(t, authResp.User.ID)
			assert.NotEmpty(t, authResp.Token)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewUserBuilder().
		WithUsername("loginuser").
		WithEmail("login@example.com").
		WithPassword("correctpassword").
		Build(t, ts.Repos)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{"by username", map[string]string{"username": "loginuser", "password": "correctpassword"}, http.StatusOK},
		{"by email", map[string]string{"email": "login@example.com", "password": "correctpassword"}, http.StatusOK},
		{"email in username field", map[string]string{"username": "login@example.com", "password": "correctpassword"}, http.StatusOK},
		{"wrong password", map[string]string{"username": "loginuser", "password": "wrongpassword"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "correctpassword"}, http.StatusUnauthorized},
		{"missing fields", map[string]string{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, http.MethodPost, "/auth/login", "", tt.body)
			defer resp.Body.Close()

			if tt.expectedStatus != http.StatusOK {
				testutil.AssertStatusCode(t, resp, tt.expectedStatus)
				return
			}

			var authResp testutil.AuthResponse
			testutil.AssertJSONResponse(t, resp, http.StatusOK, &authResp)
			assert.Equal(t, "loginuser", authResp.User.Username)
			assert.NotEmpty(t, authResp.Token)
			assert.False(t, authResp.ExpiresAt.IsZero())
		})
	}
}

func TestAuthHandler_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithUsername("alice").WithPassword("password123").Build(t, ts.Repos)

	wrong := ts.Do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "nope-nope"})
	defer wrong.Body.Close()
	unknown := ts.Do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "bob", "password": "nope-nope"})
	defer unknown.Body.Close()

	testutil.AssertErrorResponse(t, wrong, http.StatusUnauthorized, "invalid credentials")
	testutil.AssertErrorResponse(t, unknown, http.StatusUnauthorized, "invalid credentials")
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().WithUsername("meuser").BuildAndAuthenticate(t, ts)

	t.Run("with token", func(t *testing.T) {
		resp := ts.Do(t, http.MethodGet, "/auth/me", token, nil)
		defer resp.Body.Close()

		var got struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		}
		testutil.AssertJSONResponse(t, resp, http.StatusOK, &got)
		assert.Equal(t, user.ID.String(), got.ID)
		assert.Equal(t, "meuser", got.Username)
	})

	t.Run("without token", func(t *testing.T) {
		resp := ts.Do(t, http.MethodGet, "/auth/me", "", nil)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "authorization")
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := ts.Do(t, http.MethodGet, "/auth/me", "not-a-token", nil)
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	})
}

func TestAuthHandler_LogoutRevokesToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := ts.Do(t, http.MethodPost, "/auth/logout", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.Do(t, http.MethodGet, "/auth/me", token, nil)
	defer resp.Body.Close()
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "revoked")
}

func TestAuthHandler_RefreshAndChangePassword(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().WithPassword("firstpassword").BuildAndAuthenticate(t, ts)

	resp := ts.Do(t, http.MethodPost, "/auth/refresh", token, nil)
	var refreshed testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &refreshed)
	resp.Body.Close()
	require.NotEqual(t, token, refreshed.Token)

	resp = ts.Do(t, http.MethodPost, "/auth/change-password", refreshed.Token, map[string]string{
		"current_password": "firstpassword",
		"new_password":     "secondpassword",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.Do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": user.Username, "password": "secondpassword"})
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
}
