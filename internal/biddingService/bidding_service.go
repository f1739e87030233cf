package bidding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/events"
	"auction-marketplace/internal/lifecycle"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"
)

// BiddingService owns the write path of the marketplace: auction creation
// and cancellation, status reconciliation, and bid submission. Bid
// submission is serialized per auction so the snapshot read by validation
// and the state mutated by commit are atomic with respect to other bidders
// on the same auction.
type BiddingService struct {
	repo     repository.MarketplaceDB
	clk      clock.Clock
	broker   *events.Broker
	recorder metrics.Recorder
	locks    keyedMutex
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.MarketplaceDB, clk clock.Clock, broker *events.Broker, recorder metrics.Recorder) *BiddingService {
	if recorder == nil {
		recorder = metrics.NewNop()
	}
	return &BiddingService{
		repo:     repo,
		clk:      clk,
		broker:   broker,
		recorder: recorder,
	}
}

// CreateAuction lists a new auction in draft status
func (s *BiddingService) CreateAuction(ctx context.Context, sellerID, title, description string, startingPrice, bidIncrement float64, startTime, endTime time.Time) (models.Auction, error) {
	switch {
	case sellerID == "" || title == "":
		return models.Auction{}, fmt.Errorf("service: %w - missing sellerID or title", auctionerrors.ErrInvalidInput)
	case startingPrice <= 0:
		return models.Auction{}, fmt.Errorf("service: %w - starting price must be positive", auctionerrors.ErrInvalidInput)
	case bidIncrement <= 0:
		return models.Auction{}, fmt.Errorf("service: %w - bid increment must be positive", auctionerrors.ErrInvalidInput)
	case !startTime.Before(endTime):
		return models.Auction{}, fmt.Errorf("service: %w - start time must precede end time", auctionerrors.ErrInvalidInput)
	}

	auction := models.Auction{
		AuctionID:     utils.GenerateID(),
		SellerID:      sellerID,
		Title:         title,
		Description:   description,
		StartingPrice: startingPrice,
		BidIncrement:  bidIncrement,
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		Status:        models.StatusDraft,
		CreatedAt:     s.clk.Now(),
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for seller %s: %w", sellerID, err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  sellerID,
		"start_time": auction.StartTime,
		"end_time":   auction.EndTime,
	})
	return auction, nil
}

// PlaceBid validates and commits a user's bid on an auction. On acceptance
// the bid row and the auction's leader fields are updated atomically and a
// BidPlaced event is published; rejections write nothing and emit nothing.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (models.Bid, error) {
	if auctionID == "" || bidderID == "" {
		s.recorder.RecordBidRejected("invalid_input")
		return models.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if amount <= 0 {
		s.recorder.RecordBidRejected("invalid_input")
		return models.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	unlock := s.locks.lock(auctionID)
	defer unlock()

	now := s.clk.Now()

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		s.recorder.RecordBidRejected(rejectionReason(err))
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}

	// Status is a cached projection of time; bring it current before
	// validating so an expired auction rejects and its ended hook fires.
	auction, err = s.applyDueTransition(ctx, auction, now)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to reconcile auction %s: %w", auctionID, err)
	}

	if err := validateBid(auction, now, bidderID, amount); err != nil {
		s.recorder.RecordBidRejected(rejectionReason(err))
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	if err := s.repo.CommitBid(ctx, bid); err != nil {
		if errors.Is(err, auctionerrors.ErrStaleCommit) {
			// Unreachable under per-auction serialization; fail loudly.
			utils.Error("bid commit raced past validation", map[string]any{
				"auction_id": auctionID,
				"bidder_id":  bidderID,
				"amount":     amount,
			})
		}
		return models.Bid{}, fmt.Errorf("service: failed to commit bid on auction %s by user %s: %w", auctionID, bidderID, err)
	}

	s.recorder.RecordBidAccepted()

	// Publication is fire-and-forget past this point; the bid stays
	// committed no matter what happens to delivery.
	s.broker.Publish(events.Event{
		EventID:          utils.GenerateID(),
		Kind:             events.KindBidPlaced,
		AuctionID:        auctionID,
		AuctionTitle:     auction.Title,
		SellerID:         auction.SellerID,
		Amount:           amount,
		LeaderID:         bidderID,
		PreviousLeaderID: auction.HighestBidderID,
		OccurredAt:       now,
	})

	utils.Info("bid accepted", map[string]any{
		"auction_id": auctionID,
		"bidder_id":  bidderID,
		"amount":     amount,
		"bid_id":     bid.BidID,
	})
	return bid, nil
}

// CancelAuction performs the seller-initiated transition into cancelled.
// Permitted only from draft or active; terminal thereafter.
func (s *BiddingService) CancelAuction(ctx context.Context, auctionID, sellerID string) error {
	if auctionID == "" || sellerID == "" {
		return fmt.Errorf("service: %w - missing auctionID or sellerID", auctionerrors.ErrInvalidInput)
	}

	unlock := s.locks.lock(auctionID)
	defer unlock()

	now := s.clk.Now()

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if auction.SellerID != sellerID {
		return fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrNotOwner)
	}

	// An auction past its end time ends rather than cancels.
	auction, err = s.applyDueTransition(ctx, auction, now)
	if err != nil {
		return fmt.Errorf("service: failed to reconcile auction %s: %w", auctionID, err)
	}
	if auction.Status.Terminal() {
		return fmt.Errorf("service: auction %s in status %s: %w", auctionID, auction.Status, auctionerrors.ErrNotCancellable)
	}

	applied, err := s.repo.TransitionStatus(ctx, auctionID, auction.Status, models.StatusCancelled)
	if err != nil {
		return fmt.Errorf("service: failed to cancel auction %s: %w", auctionID, err)
	}
	if !applied {
		return fmt.Errorf("service: auction %s changed status concurrently: %w", auctionID, auctionerrors.ErrNotCancellable)
	}

	s.recorder.RecordStatusTransition(string(models.StatusCancelled))
	s.broker.Publish(s.statusEvent(auction, auction.Status, models.StatusCancelled, now))

	utils.Info("auction cancelled", map[string]any{
		"auction_id": auctionID,
		"seller_id":  sellerID,
	})
	return nil
}

// ReconcileStatuses brings every auction's persisted status current with the
// clock. It is idempotent and safe to run concurrently from multiple
// callers: each individual transition is a compare-and-swap, so the ended
// hook fires exactly once per auction no matter how many reconcilers race.
func (s *BiddingService) ReconcileStatuses(ctx context.Context) error {
	now := s.clk.Now()

	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to list auctions for reconciliation: %w", err)
	}

	for _, auction := range auctions {
		if _, err := s.applyDueTransition(ctx, auction, now); err != nil {
			// Keep going: one broken auction must not stall the rest.
			utils.Error("status reconciliation failed", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// applyDueTransition applies the lifecycle transition the clock says is due,
// if any, and returns the auction as it stands afterwards. Losing the CAS to
// a concurrent reconciler is not an error; the fresh state is re-read.
func (s *BiddingService) applyDueTransition(ctx context.Context, auction models.Auction, now time.Time) (models.Auction, error) {
	next, due := lifecycle.NextStatus(auction, now)
	if !due {
		return auction, nil
	}

	applied, err := s.repo.TransitionStatus(ctx, auction.AuctionID, auction.Status, next)
	if err != nil {
		return auction, err
	}
	if !applied {
		return s.repo.GetAuction(ctx, auction.AuctionID)
	}

	s.recorder.RecordStatusTransition(string(next))
	s.broker.Publish(s.statusEvent(auction, auction.Status, next, now))

	utils.Info("auction status transitioned", map[string]any{
		"auction_id": auction.AuctionID,
		"from":       auction.Status,
		"to":         next,
	})

	auction.Status = next
	return auction, nil
}

func (s *BiddingService) statusEvent(auction models.Auction, from, to models.AuctionStatus, now time.Time) events.Event {
	return events.Event{
		EventID:      utils.GenerateID(),
		Kind:         events.KindAuctionStatusChanged,
		AuctionID:    auction.AuctionID,
		AuctionTitle: auction.Title,
		SellerID:     auction.SellerID,
		Amount:       auction.HighestBid,
		LeaderID:     auction.HighestBidderID,
		OldStatus:    from,
		NewStatus:    to,
		OccurredAt:   now,
	}
}
