package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mainservice/internal/apperror"
	"github.com/smallbiznis/mainservice/internal/auth/domain"
	"github.com/stretchr/testify/assert"
)

type stubAuth struct {
	session domain.Session
	err     error
	tokens  []string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (domain.Session, error) {
	s.tokens = append(s.tokens, token)
	return s.session, s.err
}

func newRouter(svc domain.Service, seen *domain.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if err := c.Errors.Last(); err != nil && apperrorIsUnauthorized(err.Err) {
			c.Status(http.StatusUnauthorized)
		}
	})
	r.GET("/me", Required(svc), func(c *gin.Context) {
		*seen, _ = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func apperrorIsUnauthorized(err error) bool {
	return apperror.KindOf(err) == apperror.ErrUnauthorized
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	for _, header := range []string{"", "Bearer", "Bearer  ", "JWT abc", "bearer abc"} {
		_, ok := BearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestRequiredStoresSession(t *testing.T) {
	auth := &stubAuth{session: domain.Session{User: "ana"}}
	var seen domain.Session
	r := newRouter(auth, &seen)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", seen.User)
	assert.Equal(t, []string{"tok"}, auth.tokens)
}

func TestRequiredRejectsMissingBearer(t *testing.T) {
	auth := &stubAuth{}
	var seen domain.Session
	r := newRouter(auth, &seen)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, auth.tokens)
}

func TestRequiredRejectsFailedLookup(t *testing.T) {
	auth := &stubAuth{err: apperror.Unauthorized("auth.authenticate", "unauthorized")}
	var seen domain.Session
	r := newRouter(auth, &seen)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen.User)
}
