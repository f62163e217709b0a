package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
)

func withUser(r *http.Request, u *entity.User) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), u))
}

func TestHandler_Me(t *testing.T) {
	r, u := seeded(t)
	h := NewHandler(NewUserService(r, nil), nil)

	rec := httptest.NewRecorder()
	h.Me(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), u))
	require.Equal(t, http.StatusOK, rec.Code)

	var p entity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "a@x.com", p.Email)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandler_NoUserInContext(t *testing.T) {
	r, _ := seeded(t)
	h := NewHandler(NewUserService(r, nil), nil)

	for _, fn := range []http.HandlerFunc{h.Me, h.UpdateMe, h.DeleteMe} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/api/users/me", strings.NewReader("{}")))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestHandler_UpdateMe(t *testing.T) {
	r, u := seeded(t)
	h := NewHandler(NewUserService(r, nil), nil)

	req := httptest.NewRequest(http.MethodPut, "/api/users/me", strings.NewReader(`{"first_name":"Bo"}`))
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, withUser(req, u))
	require.Equal(t, http.StatusOK, rec.Code)

	var p entity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Bo", p.FirstName)
	assert.Equal(t, "Lee", p.LastName)

	req = httptest.NewRequest(http.MethodPut, "/api/users/me", strings.NewReader(`{"last_name":"`+strings.Repeat("x", 101)+`"}`))
	rec = httptest.NewRecorder()
	h.UpdateMe(rec, withUser(req, u))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/users/me", strings.NewReader(`[`))
	rec = httptest.NewRecorder()
	h.UpdateMe(rec, withUser(req, u))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteMe(t *testing.T) {
	r, u := seeded(t)
	h := NewHandler(NewUserService(r, nil), nil)

	rec := httptest.NewRecorder()
	h.DeleteMe(rec, withUser(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), u))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, 0, r.Count())

	rec = httptest.NewRecorder()
	h.DeleteMe(rec, withUser(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), u))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
