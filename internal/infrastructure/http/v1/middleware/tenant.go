package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/tenant"
)

// HeaderTenantID carries the restaurant the request acts for.
const HeaderTenantID = "X-Tenant-ID"

// Tenant resolves the tenant from the X-Tenant-ID header and stores it in the
// request context. Requests without a valid tenant are rejected.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderTenantID)
		if raw == "" {
			_ = c.Error(apperror.NewTenantRequired())
			c.Abort()
			return
		}
		if _, err := uuid.Parse(raw); err != nil {
			_ = c.Error(apperror.NewValidation("invalid tenant id").
				WithDetail("header", HeaderTenantID))
			c.Abort()
			return
		}

		ctx := tenant.WithTenantID(c.Request.Context(), raw)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_id", raw)

		c.Next()
	}
}
