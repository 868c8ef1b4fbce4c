package session

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mainservice/internal/apperror"
	"github.com/smallbiznis/mainservice/internal/auth/domain"
	obscontext "github.com/smallbiznis/mainservice/internal/observability/context"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Required rejects requests without a valid session. Failures are attached
// to the gin context for the error middleware to render.
func Required(svc domain.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			_ = c.Error(&apperror.Error{
				Kind:    apperror.ErrUnauthorized,
				Op:      "auth.session",
				Message: "unauthorized",
				Err:     domain.ErrMissingToken,
			})
			c.Abort()
			return
		}

		s, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := WithSession(c.Request.Context(), s)
		ctx = obscontext.WithUserID(ctx, s.User)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
