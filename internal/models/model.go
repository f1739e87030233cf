package models

import "time"

// AuctionStatus is the persisted lifecycle state of an auction. It is a
// cached projection of wall-clock time (plus seller cancellation) and is
// reconciled on demand by the bidding service, not by a background process.
type AuctionStatus string

const (
	StatusDraft     AuctionStatus = "draft"
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether no further status transitions are possible.
func (s AuctionStatus) Terminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// NotificationType classifies a notification for display purposes.
type NotificationType string

const (
	NotificationNewBid       NotificationType = "new_bid"
	NotificationOutbid       NotificationType = "outbid"
	NotificationAuctionEnded NotificationType = "auction_ended"
	NotificationBidAccepted  NotificationType = "bid_accepted"
	NotificationBidRejected  NotificationType = "bid_rejected"
	NotificationCounterOffer NotificationType = "counter_offer"
)

// Profile represents a marketplace participant. Profiles are owned by the
// authentication collaborator; the core references them, never mutates them.
type Profile struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

// Auction represents a listed item with its bidding terms and leader state.
// Terms (prices, time window) are immutable after creation. HighestBid == 0
// means no bid yet, in which case HighestBidderID is empty.
type Auction struct {
	AuctionID       string        `json:"auction_id"`
	SellerID        string        `json:"seller_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	StartingPrice   float64       `json:"starting_price"`
	BidIncrement    float64       `json:"bid_increment"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Status          AuctionStatus `json:"status"`
	HighestBid      float64       `json:"highest_bid"`
	HighestBidderID string        `json:"highest_bidder_id,omitempty"`
	BidCount        int           `json:"bid_count"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Bid represents a user's bid on an auction. Bids are append-only; the
// auction's leader fields are a materialized view over this log's maximum.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a message surfaced to a user about auction activity.
// Only the Read flag is ever mutated, and only by the owning user.
type Notification struct {
	NotificationID string           `json:"notification_id"`
	UserID         string           `json:"user_id"`
	AuctionID      string           `json:"auction_id,omitempty"`
	Type           NotificationType `json:"type"`
	Message        string           `json:"message"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"created_at"`
}
