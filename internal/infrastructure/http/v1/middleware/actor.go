package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "kitchenledger/internal/core/context"
)

const (
	HeaderStaffID    = "X-Staff-ID"
	HeaderTerminalID = "X-Terminal-ID"
)

// Actor puts the staff member and terminal from the request headers into the
// request context. Identity is asserted by the point of sale in front of
// this API; requests without X-Staff-ID carry no actor.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		staffID := c.GetHeader(HeaderStaffID)
		if staffID != "" {
			ctx := appctx.WithActor(c.Request.Context(), &appctx.ActorContext{
				StaffID:    staffID,
				TerminalID: c.GetHeader(HeaderTerminalID),
			})
			c.Request = c.Request.WithContext(ctx)
			c.Set("staff_id", staffID)
		}
		c.Next()
	}
}
