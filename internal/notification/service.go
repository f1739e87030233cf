package notification

import (
	"context"
	"fmt"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
)

// Service exposes the user-facing notification operations.
type Service struct {
	repo repository.MarketplaceDB
}

// NewService creates a new notification Service instance
func NewService(repo repository.MarketplaceDB) *Service {
	return &Service{repo: repo}
}

// ListForUser returns a user's notifications, newest first
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	notifications, err := s.repo.GetNotificationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

// MarkRead sets the read flag on one notification owned by the user
func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	if notificationID == "" || userID == "" {
		return fmt.Errorf("service: %w - missing notificationID or userID", auctionerrors.ErrInvalidInput)
	}

	if err := s.repo.MarkNotificationRead(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("service: failed to mark notification %s read: %w", notificationID, err)
	}
	return nil
}

// MarkAllRead sets the read flag on all of the user's notifications and
// returns how many were newly marked
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	marked, err := s.repo.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to mark notifications read for user %s: %w", userID, err)
	}
	return marked, nil
}
