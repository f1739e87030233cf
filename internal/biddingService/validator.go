package bidding

import (
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/lifecycle"
	"auction-marketplace/internal/models"
)

// validateBid decides accept/reject for a proposed bid against a consistent
// auction snapshot. Checks run in a fixed order and the first failure wins,
// so rejection reasons are mutually exclusive. The caller must hold the
// auction's submission lock for the snapshot to stay consistent through commit.
func validateBid(auction models.Auction, now time.Time, bidderID string, amount float64) error {
	if lifecycle.PhaseOf(auction, now) != lifecycle.PhaseActive {
		return fmt.Errorf("auction %s: %w", auction.AuctionID, auctionerrors.ErrAuctionNotActive)
	}
	if bidderID == auction.SellerID {
		return fmt.Errorf("auction %s, bidder %s: %w", auction.AuctionID, bidderID, auctionerrors.ErrSelfBid)
	}
	if minimum := lifecycle.MinimumBid(auction); amount < minimum {
		return &auctionerrors.BidTooLowError{Minimum: minimum}
	}
	return nil
}

// rejectionReason maps a validation error onto its metrics label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return "not_found"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return "not_active"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return "self_bid"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return "below_minimum"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
