// Package lifecycle holds the pure time-based rules of the auction life
// cycle. Every function here is total and side-effect free; callers supply
// the auction snapshot and the current instant.
package lifecycle

import (
	"time"

	"auction-marketplace/internal/models"
)

// Phase is the time-derived position of an auction in its life cycle, as
// opposed to models.AuctionStatus which is the persisted (possibly stale)
// projection of it.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseActive   Phase = "active"
	PhaseEnded    Phase = "ended"
)

// PhaseOf computes the auction's phase at the given instant. A terminal
// status forces PhaseEnded regardless of the clock, so a cancelled auction
// never reads as active again.
func PhaseOf(a models.Auction, now time.Time) Phase {
	if a.Status.Terminal() {
		return PhaseEnded
	}
	if now.Before(a.StartTime) {
		return PhaseUpcoming
	}
	if now.Before(a.EndTime) {
		return PhaseActive
	}
	return PhaseEnded
}

// NextStatus returns the status the auction should transition to at the
// given instant, and whether any transition is due. Transitions are
// monotonic: a terminal status never changes, and an auction past its end
// time moves to ended from any non-terminal status.
func NextStatus(a models.Auction, now time.Time) (models.AuctionStatus, bool) {
	if a.Status.Terminal() {
		return a.Status, false
	}
	if !now.Before(a.EndTime) {
		return models.StatusEnded, true
	}
	if a.Status == models.StatusDraft && !now.Before(a.StartTime) {
		return models.StatusActive, true
	}
	return a.Status, false
}

// MinimumBid returns the smallest amount a new bid must meet: the starting
// price when no bid has been placed yet, otherwise the current highest bid
// plus the increment.
func MinimumBid(a models.Auction) float64 {
	if a.HighestBid == 0 {
		return a.StartingPrice
	}
	return a.HighestBid + a.BidIncrement
}

// CurrentPrice returns the price to display for an auction: the highest
// bid when one exists, otherwise the starting price.
func CurrentPrice(a models.Auction) float64 {
	if a.HighestBid > 0 {
		return a.HighestBid
	}
	return a.StartingPrice
}
