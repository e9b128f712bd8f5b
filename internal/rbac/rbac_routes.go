package rbac

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts /rbac on r, which must already authenticate.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	group := r.Group("/rbac")
	{
		group.POST("/enforce", handler.Enforce)
		group.GET("/roles", handler.ListRoles)
	}
}
