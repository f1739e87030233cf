// Package notification turns committed domain events into per-user
// notifications and serves the user-facing notification operations.
package notification

import (
	"context"
	"fmt"
	"sync"

	"auction-marketplace/internal/events"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"
)

// Dispatcher consumes the event firehose and creates notifications.
// Delivery of the underlying events is at-least-once; the dedup key
// (event id, recipient, kind) makes notification creation effectively-once.
// Dispatch failures never propagate back to the bid commit path.
type Dispatcher struct {
	repo     repository.MarketplaceDB
	recorder metrics.Recorder

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDispatcher creates a Dispatcher writing through the given store.
func NewDispatcher(repo repository.MarketplaceDB, recorder metrics.Recorder) *Dispatcher {
	if recorder == nil {
		recorder = metrics.NewNop()
	}
	return &Dispatcher{
		repo:     repo,
		recorder: recorder,
		seen:     make(map[string]struct{}),
	}
}

// Run consumes events until the context is cancelled or the stream closes.
// Intended to run on its own goroutine behind the broker's buffered channel,
// so dispatch latency never blocks publishers.
func (d *Dispatcher) Run(ctx context.Context, stream <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-stream:
			if !ok {
				return
			}
			d.Dispatch(ctx, e)
		}
	}
}

// Dispatch derives and creates the notifications for a single event.
// Safe to call more than once with the same event.
func (d *Dispatcher) Dispatch(ctx context.Context, e events.Event) {
	switch e.Kind {
	case events.KindBidPlaced:
		d.onBidPlaced(ctx, e)
	case events.KindAuctionStatusChanged:
		if e.NewStatus == models.StatusEnded {
			d.onAuctionEnded(ctx, e)
		}
	}
}

// onBidPlaced notifies the seller of every accepted bid and the previous
// leader when they were outbid. The new bidder gets nothing; prior bidders
// who never held the lead get nothing.
func (d *Dispatcher) onBidPlaced(ctx context.Context, e events.Event) {
	d.create(ctx, e, e.SellerID, models.NotificationNewBid,
		fmt.Sprintf("New bid of %.2f on your auction %q", e.Amount, e.AuctionTitle))

	if e.PreviousLeaderID != "" && e.PreviousLeaderID != e.LeaderID {
		d.create(ctx, e, e.PreviousLeaderID, models.NotificationOutbid,
			fmt.Sprintf("You were outbid on %q; the leading bid is now %.2f", e.AuctionTitle, e.Amount))
	}
}

// onAuctionEnded notifies seller and winning bidder. The upstream CAS on the
// status transition guarantees this event fires once per auction.
func (d *Dispatcher) onAuctionEnded(ctx context.Context, e events.Event) {
	sellerMsg := fmt.Sprintf("Your auction %q has ended without bids", e.AuctionTitle)
	if e.LeaderID != "" {
		sellerMsg = fmt.Sprintf("Your auction %q has ended at %.2f", e.AuctionTitle, e.Amount)
	}
	d.create(ctx, e, e.SellerID, models.NotificationAuctionEnded, sellerMsg)

	if e.LeaderID != "" {
		d.create(ctx, e, e.LeaderID, models.NotificationAuctionEnded,
			fmt.Sprintf("You won %q with a bid of %.2f", e.AuctionTitle, e.Amount))
	}
}

func (d *Dispatcher) create(ctx context.Context, e events.Event, userID string, kind models.NotificationType, message string) {
	key := fmt.Sprintf("%s|%s|%s", e.EventID, userID, kind)

	d.mu.Lock()
	_, duplicate := d.seen[key]
	d.mu.Unlock()
	if duplicate {
		return
	}

	n := models.Notification{
		NotificationID: utils.GenerateID(),
		UserID:         userID,
		AuctionID:      e.AuctionID,
		Type:           kind,
		Message:        message,
		CreatedAt:      e.OccurredAt,
	}

	if err := d.repo.CreateNotification(ctx, n); err != nil {
		// Not marked seen: a redelivery of the event retries this recipient.
		utils.Error("failed to create notification", map[string]any{
			"event_id":   e.EventID,
			"user_id":    userID,
			"kind":       kind,
			"auction_id": e.AuctionID,
			"error":      err.Error(),
		})
		return
	}

	d.mu.Lock()
	d.seen[key] = struct{}{}
	d.mu.Unlock()

	d.recorder.RecordNotificationCreated(string(kind))
	utils.Debug("notification created", map[string]any{
		"notification_id": n.NotificationID,
		"user_id":         userID,
		"kind":            kind,
	})
}
