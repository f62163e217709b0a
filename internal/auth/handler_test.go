package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Register(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)

	rec := post(t, h.Register, `{"email":"a@x.com","password":"pw123456","first_name":"Ann"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.Equal(t, "Ann", resp.User.FirstName)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandler_RegisterRejects(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	require.Equal(t, http.StatusCreated, post(t, h.Register, `{"email":"a@x.com","password":"pw"}`).Code)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"duplicate email", `{"email":"a@x.com","password":"other"}`, "Email already registered"},
		{"malformed json", `{"email":`, "invalid payload"},
		{"missing password", `{"email":"b@x.com"}`, "password is required"},
		{"bad email", `{"email":"nope","password":"pw"}`, "email must be a valid email address"},
		{"long password", `{"email":"c@x.com","password":"` + strings.Repeat("x", 73) + `"}`, "password must be at most 72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h.Register, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.msg, decodeMap(t, rec)["error"])
		})
	}
	assert.Equal(t, 1, f.store.Count())
}

func TestHandler_Login(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	require.Equal(t, http.StatusCreated, post(t, h.Register, `{"email":"a@x.com","password":"pw123456"}`).Code)

	rec := post(t, h.Login, `{"email":"a@x.com","password":"pw123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "a@x.com", resp.User.Email)

	wrongPw := post(t, h.Login, `{"email":"a@x.com","password":"bad"}`)
	unknown := post(t, h.Login, `{"email":"z@x.com","password":"pw123456"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPw.Body.String(), unknown.Body.String())
	assert.Equal(t, "Invalid credentials", decodeMap(t, unknown)["error"])

	rec = post(t, h.Login, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
