// Package query serves the read-only projections consumed by the
// presentation layer. Nothing in here mutates state, and every view
// recomputes the time-derived phase instead of trusting the cached status,
// so it tolerates snapshots that have not been reconciled yet.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/lifecycle"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
)

// AuctionView is the detail projection of a single auction.
type AuctionView struct {
	Auction        models.Auction  `json:"auction"`
	Phase          lifecycle.Phase `json:"phase"`
	CurrentPrice   float64         `json:"current_price"`
	MinimumNextBid float64         `json:"minimum_next_bid"`
}

// Dashboard aggregates the whole marketplace for the landing view.
type Dashboard struct {
	AuctionsByStatus map[models.AuctionStatus]int `json:"auctions_by_status"`
	TotalAuctions    int                          `json:"total_auctions"`
	TotalBids        int                          `json:"total_bids"`
	TopAuctions      []AuctionView                `json:"top_auctions"`
}

// Service answers read-only queries over the committed state.
type Service struct {
	repo repository.MarketplaceDB
	clk  clock.Clock
	topN int
}

// NewService creates a new query Service instance. topN bounds the
// dashboard's top-auction list.
func NewService(repo repository.MarketplaceDB, clk clock.Clock, topN int) *Service {
	return &Service{repo: repo, clk: clk, topN: topN}
}

// AuctionDetail returns the detail view of one auction
func (s *Service) AuctionDetail(ctx context.Context, auctionID string) (AuctionView, error) {
	if auctionID == "" {
		return AuctionView{}, fmt.Errorf("query: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return AuctionView{}, fmt.Errorf("query: failed to get auction %s: %w", auctionID, err)
	}
	return s.view(auction, s.clk.Now()), nil
}

// BidHistory returns an auction's bids ordered by creation time, newest first
func (s *Service) BidHistory(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("query: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("query: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// Dashboard returns marketplace-wide aggregates: auction counts by
// (time-corrected) status, total bid volume, and the top auctions by
// highest bid with ties broken by earlier creation.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("query: failed to list auctions: %w", err)
	}

	now := s.clk.Now()
	dashboard := Dashboard{
		AuctionsByStatus: make(map[models.AuctionStatus]int),
		TotalAuctions:    len(auctions),
	}

	for _, auction := range auctions {
		dashboard.AuctionsByStatus[effectiveStatus(auction, now)]++
		dashboard.TotalBids += auction.BidCount
	}

	ranked := make([]models.Auction, len(auctions))
	copy(ranked, auctions)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].HighestBid != ranked[j].HighestBid {
			return ranked[i].HighestBid > ranked[j].HighestBid
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})
	if len(ranked) > s.topN {
		ranked = ranked[:s.topN]
	}
	for _, auction := range ranked {
		dashboard.TopAuctions = append(dashboard.TopAuctions, s.view(auction, now))
	}

	return dashboard, nil
}

func (s *Service) view(auction models.Auction, now time.Time) AuctionView {
	return AuctionView{
		Auction:        auction,
		Phase:          lifecycle.PhaseOf(auction, now),
		CurrentPrice:   lifecycle.CurrentPrice(auction),
		MinimumNextBid: lifecycle.MinimumBid(auction),
	}
}

// effectiveStatus corrects a possibly stale cached status from the clock,
// without writing anything back.
func effectiveStatus(auction models.Auction, now time.Time) models.AuctionStatus {
	if auction.Status.Terminal() {
		return auction.Status
	}
	switch lifecycle.PhaseOf(auction, now) {
	case lifecycle.PhaseUpcoming:
		return models.StatusDraft
	case lifecycle.PhaseActive:
		return models.StatusActive
	default:
		return models.StatusEnded
	}
}
