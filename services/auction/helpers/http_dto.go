package helpers

import "time"

// Request/Response DTOs
type PlaceBidRequest struct {
	AuctionID string  `json:"auction_id" binding:"required"`
	BidderID  string  `json:"bidder_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

type CreateAuctionRequest struct {
	SellerID      string    `json:"seller_id" binding:"required"`
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	StartingPrice float64   `json:"starting_price" binding:"required,gt=0"`
	BidIncrement  float64   `json:"bid_increment" binding:"required,gt=0"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
}

type CreateAuctionResponse struct {
	AuctionID string `json:"auction_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type CancelAuctionRequest struct {
	SellerID string `json:"seller_id" binding:"required"`
}

type MarkReadRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}
