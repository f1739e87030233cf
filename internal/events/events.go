// Package events defines the domain events emitted by the auction ledger
// and an in-process broker used to fan them out to the notification
// dispatcher and to live-update subscribers.
package events

import (
	"sync"
	"time"

	"auction-marketplace/internal/models"
)

// Kind identifies the type of a domain event.
type Kind string

const (
	KindBidPlaced            Kind = "bid_placed"
	KindAuctionStatusChanged Kind = "auction_status_changed"
)

// Event is an immutable record of a committed state change. Amount and the
// leader fields are set for bid events; OldStatus/NewStatus for status
// transitions.
type Event struct {
	EventID          string               `json:"event_id"`
	Kind             Kind                 `json:"kind"`
	AuctionID        string               `json:"auction_id"`
	AuctionTitle     string               `json:"auction_title"`
	SellerID         string               `json:"seller_id"`
	Amount           float64              `json:"amount,omitempty"`
	LeaderID         string               `json:"leader_id,omitempty"`
	PreviousLeaderID string               `json:"previous_leader_id,omitempty"`
	OldStatus        models.AuctionStatus `json:"old_status,omitempty"`
	NewStatus        models.AuctionStatus `json:"new_status,omitempty"`
	OccurredAt       time.Time            `json:"occurred_at"`
}

// subscriberBuffer bounds each subscriber channel. Publishing never blocks;
// a subscriber that falls this far behind starts losing events.
const subscriberBuffer = 64

type subscriber struct {
	id        int
	auctionID string // empty subscribes to every auction
	ch        chan Event
}

// Broker is a concurrency-safe in-process publish/subscribe hub keyed by
// auction id. Publish never blocks the caller, so event delivery can never
// fail or stall a committed bid.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]*subscriber)}
}

// Subscribe registers for events on a single auction. The returned cancel
// function must be called to release the subscription; it closes the channel.
func (b *Broker) Subscribe(auctionID string) (<-chan Event, func()) {
	return b.subscribe(auctionID)
}

// SubscribeAll registers for every event on every auction. Used by the
// notification dispatcher.
func (b *Broker) SubscribeAll() (<-chan Event, func()) {
	return b.subscribe("")
}

func (b *Broker) subscribe(auctionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &subscriber{
		id:        b.nextID,
		auctionID: auctionID,
		ch:        make(chan Event, subscriberBuffer),
	}
	b.subs[s.id] = s

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[s.id]; ok {
			delete(b.subs, s.id)
			close(s.ch)
		}
	}
	return s.ch, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
// A full subscriber channel drops the event for that subscriber only.
func (b *Broker) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		if s.auctionID != "" && s.auctionID != e.AuctionID {
			continue
		}
		select {
		case s.ch <- e:
		default:
		}
	}
}
