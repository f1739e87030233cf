package handler

import (
	"context"
	"net/http"

	model "auction-marketplace/internal/models"
	"auction-marketplace/services/auction/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

type NotificationServiceInterface interface {
	ListForUser(ctx context.Context, userID string) ([]model.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// NotificationHandler serves the per-user notification endpoints.
type NotificationHandler struct {
	service NotificationServiceInterface
}

func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListNotificationsHandler handles GET /users/:user_id/notifications
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	userID := c.Param("user_id")

	notifications, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("ListNotificationsHandler: error retrieving notifications", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	if notifications == nil {
		notifications = []model.Notification{}
	}

	utils.JSONResponse(c, http.StatusOK, notifications, "notifications retrieved successfully")
	helpers.LogSuccess("ListNotificationsHandler", "notifications retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(notifications),
	})
}

// MarkReadHandler handles POST /notifications/:notification_id/read
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	notificationID := c.Param("notification_id")

	var req helpers.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "MarkReadHandler", err)
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), notificationID, req.UserID); err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("MarkReadHandler: mark read failed", map[string]any{
			"notification_id": notificationID,
			"user_id":         req.UserID,
			"error":           err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "notification marked read")
}

// MarkAllReadHandler handles POST /users/:user_id/notifications/read-all
func (h *NotificationHandler) MarkAllReadHandler(c *gin.Context) {
	userID := c.Param("user_id")

	marked, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("MarkAllReadHandler: mark all read failed", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.MarkAllReadResponse{Marked: marked}, "notifications marked read")
	helpers.LogSuccess("MarkAllReadHandler", "notifications marked read", map[string]any{
		"user_id": userID,
		"marked":  marked,
	})
}
