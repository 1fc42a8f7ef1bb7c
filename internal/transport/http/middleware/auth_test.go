package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parcel-notify/internal/domain"
	jwtinfra "github.com/parcel-notify/internal/infrastructure/jwt"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) CheckCredentials(username, password string) bool {
	return m.Called(username, password).Bool(0)
}
func (m *mockAuth) VerifyBearer(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func serve(a Authenticator, req *http.Request, h http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	AdminAuth(a, zap.NewNop())(h).ServeHTTP(rr, req)
	return rr
}

func TestAdminAuth_MissingHeader(t *testing.T) {
	a := &mockAuth{}
	rr := serve(a, httptest.NewRequest(http.MethodGet, "/", nil), http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, basicRealm, rr.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"UNAUTHORIZED","message":"admin credentials required"}`, rr.Body.String())
}

func TestAdminAuth_Basic(t *testing.T) {
	a := &mockAuth{}
	a.On("CheckCredentials", "guard", "pw").Return(true)
	a.On("CheckCredentials", "guard", "wrong").Return(false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("guard", "pw")
	assert.Equal(t, http.StatusOK, serve(a, req, http.HandlerFunc(okHandler)).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("guard", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(a, req, http.HandlerFunc(okHandler)).Code)
}

func TestAdminAuth_BasicInjectsSubject(t *testing.T) {
	a := &mockAuth{}
	a.On("CheckCredentials", "guard", "pw").Return(true)

	var subject string
	var claims *jwtinfra.Claims
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = AdminSubject(r.Context())
		claims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("guard", "pw")
	require.Equal(t, http.StatusOK, serve(a, req, capture).Code)

	assert.Equal(t, "guard", subject)
	require.NotNil(t, claims)
	assert.Equal(t, jwtinfra.RoleAdmin, claims.Role)
}

func TestAdminSubject_OutsideGate(t *testing.T) {
	assert.Empty(t, AdminSubject(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestAdminAuth_BearerInjectsClaims(t *testing.T) {
	a := &mockAuth{}
	a.On("VerifyBearer", "tok").Return(&jwtinfra.Claims{Role: jwtinfra.RoleAdmin}, nil)

	claims := &jwtinfra.Claims{Role: jwtinfra.RoleAdmin}
	claims.Subject = "desk-2"
	a.On("VerifyBearer", "tok2").Return(claims, nil)

	var got *jwtinfra.Claims
	var subject string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
		subject = AdminSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := serve(a, req, capture)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, jwtinfra.RoleAdmin, got.Role)
	a.AssertNotCalled(t, "CheckCredentials", mock.Anything, mock.Anything)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok2")
	require.Equal(t, http.StatusOK, serve(a, req, capture).Code)
	assert.Equal(t, "desk-2", subject)
}

func TestAdminAuth_BearerRejected(t *testing.T) {
	a := &mockAuth{}
	a.On("VerifyBearer", "expired").Return(nil, errors.New("token is expired"))
	a.On("VerifyBearer", "viewer").Return(nil, domain.ErrForbidden)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	assert.Equal(t, http.StatusUnauthorized, serve(a, req, http.HandlerFunc(okHandler)).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer viewer")
	assert.Equal(t, http.StatusForbidden, serve(a, req, http.HandlerFunc(okHandler)).Code)
}
