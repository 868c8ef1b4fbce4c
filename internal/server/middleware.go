package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mainservice/internal/apperror"
	authdomain "github.com/smallbiznis/mainservice/internal/auth/domain"
	"github.com/smallbiznis/mainservice/internal/auth/session"
)

// SessionRequired resolves the bearer token into a session.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return session.Required(s.authsvc)
}

// Authorize checks the resolved session against the casbin policy. It must
// run after SessionRequired.
func (s *Server) Authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, apperror.Unauthorized("server.authorize", "unauthorized"))
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), sess, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// currentSession returns the session stored by SessionRequired.
func currentSession(c *gin.Context) (authdomain.Session, bool) {
	return session.FromContext(c.Request.Context())
}
