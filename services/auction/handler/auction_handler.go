package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"auction-marketplace/internal/events"
	model "auction-marketplace/internal/models"
	query "auction-marketplace/internal/queryService"
	"auction-marketplace/services/auction/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (model.Bid, error)
	CreateAuction(ctx context.Context, sellerID, title, description string, startingPrice, bidIncrement float64, startTime, endTime time.Time) (model.Auction, error)
	CancelAuction(ctx context.Context, auctionID, sellerID string) error
	ReconcileStatuses(ctx context.Context) error
}

type QueryServiceInterface interface {
	AuctionDetail(ctx context.Context, auctionID string) (query.AuctionView, error)
	BidHistory(ctx context.Context, auctionID string) ([]model.Bid, error)
	Dashboard(ctx context.Context) (query.Dashboard, error)
}

// AuctionHandler serves the auction command/query endpoints.
type AuctionHandler struct {
	bidding BiddingServiceInterface
	query   QueryServiceInterface
	broker  *events.Broker

	// status is a cached projection of time; when set, read handlers bring
	// it current before serving, per the collaborator contract.
	reconcileOnRead bool
}

func NewAuctionHandler(bidding BiddingServiceInterface, querySvc QueryServiceInterface, broker *events.Broker, reconcileOnRead bool) *AuctionHandler {
	return &AuctionHandler{
		bidding:         bidding,
		query:           querySvc,
		broker:          broker,
		reconcileOnRead: reconcileOnRead,
	}
}

func (h *AuctionHandler) reconcile(c *gin.Context) {
	if !h.reconcileOnRead {
		return
	}
	if err := h.bidding.ReconcileStatuses(c.Request.Context()); err != nil {
		// Reads still work against the stale snapshot; queries recompute
		// phase from time anyway.
		utils.Warn("status reconciliation failed on read path", map[string]any{"error": err.Error()})
	}
}

// PlaceBidHandler handles POST /bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.bidding.PlaceBid(c.Request.Context(), req.AuctionID, req.BidderID, req.Amount)
	if err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount,
	})
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.bidding.CreateAuction(c.Request.Context(), req.SellerID, req.Title, req.Description,
		req.StartingPrice, req.BidIncrement, req.StartTime, req.EndTime)
	if err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("CreateAuctionHandler: failed to create auction", map[string]any{
			"seller_id": req.SellerID,
			"error":     err.Error(),
		})
		return
	}

	resp := helpers.CreateAuctionResponse{
		AuctionID: auction.AuctionID,
		Status:    string(auction.Status),
		CreatedAt: auction.CreatedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "auction created")
	helpers.LogSuccess("CreateAuctionHandler", "auction created", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  req.SellerID,
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.CancelAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CancelAuctionHandler", err)
		return
	}

	if err := h.bidding.CancelAuction(c.Request.Context(), auctionID, req.SellerID); err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("CancelAuctionHandler: cancel rejected", map[string]any{
			"auction_id": auctionID,
			"seller_id":  req.SellerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "auction cancelled")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled", map[string]any{
		"auction_id": auctionID,
		"seller_id":  req.SellerID,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	h.reconcile(c)

	auctionID := c.Param("auction_id")
	view, err := h.query.AuctionDetail(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, view, "auction retrieved successfully")
}

// GetBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	h.reconcile(c)

	auctionID := c.Param("auction_id")
	bids, err := h.query.BidHistory(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("GetBidsHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// DashboardHandler handles GET /dashboard
func (h *AuctionHandler) DashboardHandler(c *gin.Context) {
	h.reconcile(c)

	dashboard, err := h.query.Dashboard(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, err)
		utils.Warn("DashboardHandler: error building dashboard", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, dashboard, "dashboard retrieved successfully")
}

// StreamAuctionHandler handles GET /auctions/:auction_id/stream with
// server-sent events carrying BidPlaced and AuctionStatusChanged for one
// auction. The stream closes when the client disconnects.
func (h *AuctionHandler) StreamAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	if _, err := h.query.AuctionDetail(c.Request.Context(), auctionID); err != nil {
		helpers.RespondWithError(c, err)
		return
	}

	stream, cancel := h.broker.Subscribe(auctionID)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	helpers.LogSuccess("StreamAuctionHandler", "client subscribed", map[string]any{"auction_id": auctionID})

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Kind), e)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
