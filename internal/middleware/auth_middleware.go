package middleware

import (
	"strings"

	autherrors "github.com/Abhinav7558/employee-management-system/internal/auth/errors"
	"github.com/Abhinav7558/employee-management-system/internal/auth/token"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
	"github.com/Abhinav7558/employee-management-system/internal/shared/contextutil"
	"github.com/Abhinav7558/employee-management-system/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts an access token from the Authorization header or
// the access_token cookie and exposes user_id and role to later handlers.
func AuthMiddleware(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			abortWith(c, apperror.ErrUnauthorized)
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(tokenString), token.TypeAccess)
		if err != nil {
			abortWith(c, err)
			return
		}
		if claims.UserID == "" {
			abortWith(c, autherrors.ErrInvalidToken)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		ctx := contextutil.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortWith(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Abort(c, httpErr.Status, httpErr.Code, httpErr.Message)
}
