package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/wills_backend/models"
	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"github.com/gin-gonic/gin"
)

// CurrentUserMiddleware hydrates the request context with the owner's id
// and display name once the session middleware has resolved a username.
// Every owner-scoped query downstream reads the id from here, never from
// request input.
func CurrentUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.GetUsernameFromContext(c.Request.Context())
		if !ok || username == "" {
			c.Next()
			return
		}

		user, err := models.GetUserByUsername(c.Request.Context(), username)
		if err != nil || user.IsActive == nil || !*user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			c.Abort()
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Name)
		if user.IsAdmin != nil {
			ctx = utils.SetIsAdminInContext(ctx, *user.IsAdmin)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
