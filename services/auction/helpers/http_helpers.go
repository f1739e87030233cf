package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrNotificationNotFound):
		return http.StatusNotFound, "notification not found"
	case errors.Is(err, auctionerrors.ErrProfileNotFound):
		return http.StatusNotFound, "profile not found"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not open for bidding"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return http.StatusForbidden, "sellers cannot bid on their own auction"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount below the minimum"
	case errors.Is(err, auctionerrors.ErrNotCancellable):
		return http.StatusConflict, "auction can no longer be cancelled"
	case errors.Is(err, auctionerrors.ErrNotOwner):
		return http.StatusForbidden, "resource belongs to another user"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondWithError maps the error, sends the standard error envelope, and
// attaches the current minimum when the bid was simply too low so the
// bidder knows what to retry with.
func RespondWithError(c *gin.Context, err error) {
	status, message := MapErrorToHTTP(err)

	var tooLow *auctionerrors.BidTooLowError
	if errors.As(err, &tooLow) {
		c.JSON(status, gin.H{
			"status":      status,
			"message":     message,
			"error":       err.Error(),
			"minimum_bid": tooLow.Minimum,
		})
		return
	}

	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
