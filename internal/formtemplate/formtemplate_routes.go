package formtemplate

import (
	"github.com/Abhinav7558/employee-management-system/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes mounts /forms on r, which must already authenticate.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	rdb *redis.Client,
) {
	forms := r.Group("/forms")
	{
		forms.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "form", "read"),
			handler.GetAll,
		)

		forms.GET("/:id",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "form", "read"),
			handler.GetById,
		)

		forms.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "form", "write"),
			middleware.Idempotency(rdb),
			handler.Create,
		)

		forms.POST("/:id/duplicate",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "form", "write"),
			middleware.Idempotency(rdb),
			handler.Duplicate,
		)

		forms.PUT("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "form", "write"),
			handler.Update,
		)

		forms.PATCH("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "form", "write"),
			handler.Update,
		)

		forms.DELETE("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "form", "delete"),
			handler.Delete,
		)
	}
}
