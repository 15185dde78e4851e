package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
)

func TestRegistration(t *testing.T) {
	r := setupTest(t)

	w := doRequest(t, r, http.MethodPost, "/api/registration", "", map[string]interface{}{
		"fullname":          "Ada Lovelace",
		"email":             "ada@example.com",
		"password":          "password123",
		"repeated_password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token    string `json:"token"`
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
		UserID   uint   `json:"user_id"`
	}
	decodeJSON(t, w, &resp)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ada Lovelace", resp.Fullname)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.NotZero(t, resp.UserID)

	// The token works against an authenticated endpoint.
	w = doRequest(t, r, http.MethodGet, "/api/boards", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegistrationPasswordMismatch(t *testing.T) {
	r := setupTest(t)

	w := doRequest(t, r, http.MethodPost, "/api/registration", "", map[string]interface{}{
		"fullname":          "Ada Lovelace",
		"email":             "ada@example.com",
		"password":          "password123",
		"repeated_password": "different123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// No user was created and no token issued.
	var count int64
	require.NoError(t, db.DB.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.NotContains(t, w.Body.String(), "token")
}

func TestRegistrationDuplicateEmail(t *testing.T) {
	r := setupTest(t)
	createUser(t, "Ada Lovelace", "ada@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/registration", "", map[string]interface{}{
		"fullname":          "Someone Else",
		"email":             "ada@example.com",
		"password":          "password123",
		"repeated_password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "Ada Lovelace", "ada@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token  string `json:"token"`
		UserID uint   `json:"user_id"`
	}
	decodeJSON(t, w, &resp)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.UserID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	r := setupTest(t)
	createUser(t, "Ada Lovelace", "ada@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmailCheck(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "Ada Lovelace", "ada@example.com")
	token := tokenFor(t, user)

	w := doRequest(t, r, http.MethodGet, "/api/email-check?email=ada@example.com", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID       uint   `json:"id"`
		Email    string `json:"email"`
		Fullname string `json:"fullname"`
	}
	decodeJSON(t, w, &resp)

	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.Equal(t, "Ada Lovelace", resp.Fullname)

	w = doRequest(t, r, http.MethodGet, "/api/email-check?email=nobody@example.com", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/email-check", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/email-check?email=ada@example.com", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
