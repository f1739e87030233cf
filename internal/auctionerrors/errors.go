package auctionerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoBids               = errors.New("no bids found for auction")
)

// business rule errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAuctionNotActive = errors.New("auction is not active")
	ErrSelfBid          = errors.New("sellers cannot bid on their own auction")
	ErrBidTooLow        = errors.New("bid amount below the minimum")
	ErrNotCancellable   = errors.New("auction can no longer be cancelled")
	ErrNotOwner         = errors.New("resource belongs to another user")
)

// ErrStaleCommit signals a bid commit observed a higher leading bid than the
// one it was validated against. Given per-auction serialization this is
// unreachable; if it fires, it is a logic failure, never a user error.
var ErrStaleCommit = errors.New("bid commit raced past validation")

// BidTooLowError carries the minimum acceptable amount so callers can show
// the bidder what to retry with. It unwraps to ErrBidTooLow.
type BidTooLowError struct {
	Minimum float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount below the minimum of %.2f", e.Minimum)
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}
