package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"auction-marketplace/internal/auctionerrors"
	model "auction-marketplace/internal/models"
)

// MarketplaceDB defines the durable-state interface for the auction system.
// The store is deliberately dumb: lifecycle and bidding rules live in the
// service layer, the store only guarantees atomicity of the operations below.
type MarketplaceDB interface {
	CreateProfile(ctx context.Context, profile model.Profile) error
	GetProfile(ctx context.Context, profileID string) (model.Profile, error)

	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)

	// TransitionStatus moves the auction from one status to another only if
	// it still holds the expected current status, and reports whether the
	// transition was applied. Concurrent reconcilers therefore apply each
	// transition exactly once.
	TransitionStatus(ctx context.Context, auctionID string, from, to model.AuctionStatus) (bool, error)

	// CommitBid atomically appends the bid and updates the auction's leader
	// fields; no reader may observe one without the other. It fails with
	// ErrStaleCommit if the bid no longer beats the committed highest bid.
	CommitBid(ctx context.Context, bid model.Bid) error

	// GetBidsByAuction returns the auction's bids newest first.
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)

	CreateNotification(ctx context.Context, notification model.Notification) error
	GetNotificationsByUser(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of MarketplaceDB
type MemoryRepo struct {
	mu            sync.RWMutex
	profiles      map[string]model.Profile
	auctions      map[string]model.Auction
	bids          map[string][]model.Bid           // key: auctionID -> bids in commit order
	notifications map[string][]model.Notification  // key: userID -> notifications in creation order
	notifIndex    map[string]*notificationLocation // key: notificationID
}

type notificationLocation struct {
	userID string
	idx    int
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles:      make(map[string]model.Profile),
		auctions:      make(map[string]model.Auction),
		bids:          make(map[string][]model.Bid),
		notifications: make(map[string][]model.Notification),
		notifIndex:    make(map[string]*notificationLocation),
	}
}

// CreateProfile stores a participant profile
func (r *MemoryRepo) CreateProfile(_ context.Context, profile model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[profile.ProfileID]; ok {
		return fmt.Errorf("create profile %s: already exists", profile.ProfileID)
	}
	r.profiles[profile.ProfileID] = profile
	return nil
}

// GetProfile returns a participant profile by id
func (r *MemoryRepo) GetProfile(_ context.Context, profileID string) (model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[profileID]
	if !ok {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", profileID, auctionerrors.ErrProfileNotFound)
	}
	return profile, nil
}

// CreateAuction stores a newly listed auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: already exists", auction.AuctionID)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns an auction snapshot by id
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctions returns a snapshot of every auction
func (r *MemoryRepo) ListAuctions(_ context.Context) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		auctions = append(auctions, a)
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
	return auctions, nil
}

// TransitionStatus applies a compare-and-swap status change
func (r *MemoryRepo) TransitionStatus(_ context.Context, auctionID string, from, to model.AuctionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("transition auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Status != from {
		return false, nil
	}
	auction.Status = to
	r.auctions[auctionID] = auction
	return true, nil
}

// CommitBid appends the bid and updates the auction leader in one critical section
func (r *MemoryRepo) CommitBid(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	// Last line of defense for the non-decreasing invariant. The service
	// serializes per auction, so this firing means a logic failure upstream.
	if auction.HighestBid > 0 && bid.Amount <= auction.HighestBid {
		return fmt.Errorf("commit bid %s (amount %.2f vs highest %.2f): %w",
			bid.BidID, bid.Amount, auction.HighestBid, auctionerrors.ErrStaleCommit)
	}

	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)
	auction.HighestBid = bid.Amount
	auction.HighestBidderID = bid.BidderID
	auction.BidCount++
	r.auctions[bid.AuctionID] = auction
	return nil
}

// GetBidsByAuction returns all bids for an auction, newest first
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	stored := r.bids[auctionID]
	bids := make([]model.Bid, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		bids = append(bids, stored[i])
	}
	return bids, nil
}

// CreateNotification stores a notification for its target user
func (r *MemoryRepo) CreateNotification(_ context.Context, notification model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifIndex[notification.NotificationID]; ok {
		return fmt.Errorf("create notification %s: already exists", notification.NotificationID)
	}
	list := r.notifications[notification.UserID]
	r.notifIndex[notification.NotificationID] = &notificationLocation{
		userID: notification.UserID,
		idx:    len(list),
	}
	r.notifications[notification.UserID] = append(list, notification)
	return nil
}

// GetNotificationsByUser returns a user's notifications, newest first
func (r *MemoryRepo) GetNotificationsByUser(_ context.Context, userID string) ([]model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.notifications[userID]
	notifications := make([]model.Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		notifications = append(notifications, stored[i])
	}
	return notifications, nil
}

// MarkNotificationRead sets the read flag on a single notification owned by the user
func (r *MemoryRepo) MarkNotificationRead(_ context.Context, notificationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.notifIndex[notificationID]
	if !ok {
		return fmt.Errorf("mark notification %s: %w", notificationID, auctionerrors.ErrNotificationNotFound)
	}
	if loc.userID != userID {
		return fmt.Errorf("mark notification %s for user %s: %w", notificationID, userID, auctionerrors.ErrNotOwner)
	}
	r.notifications[loc.userID][loc.idx].Read = true
	return nil
}

// MarkAllNotificationsRead sets the read flag on every unread notification
// of the user and returns the number of newly marked rows
func (r *MemoryRepo) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	marked := 0
	list := r.notifications[userID]
	for i := range list {
		if !list[i].Read {
			list[i].Read = true
			marked++
		}
	}
	return marked, nil
}
