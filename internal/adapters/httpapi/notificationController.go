package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type NotificationController struct{ nc NotificationUseCase }

func NewNotificationController(nc NotificationUseCase) *NotificationController {
	return &NotificationController{nc: nc}
}

func (ctl *NotificationController) List(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := ctl.nc.ListNotifications(c.Request.Context(), currentUser(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (ctl *NotificationController) UnreadCount(c *gin.Context) {
	n, err := ctl.nc.UnreadCount(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

func (ctl *NotificationController) MarkRead(c *gin.Context) {
	if err := ctl.nc.MarkRead(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	n, err := ctl.nc.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (ctl *NotificationController) ClearAll(c *gin.Context) {
	n, err := ctl.nc.ClearAll(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
