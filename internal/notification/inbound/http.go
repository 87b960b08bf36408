package inbound

import (
	"github.com/sdwijaya/herald/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/notifications", end.CreateNotification)
	r.GET("/api/v1/notifications", end.ListNotifications)
	r.GET("/api/v1/notifications/:id", end.GetNotification)
	r.PATCH("/api/v1/notifications/:id/delivered", end.MarkDelivered)
	r.PATCH("/api/v1/notifications/:id/read", end.MarkRead)

	r.GET("/api/v1/users/:user_id/preferences", end.GetPreference)
	r.PUT("/api/v1/users/:user_id/preferences", end.UpsertPreference)
}
