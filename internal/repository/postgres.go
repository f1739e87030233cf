package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auction-marketplace/internal/auctionerrors"
	model "auction-marketplace/internal/models"
)

// PostgresRepo is the PostgreSQL-backed implementation of MarketplaceDB.
// Commit atomicity comes from transactions plus a row lock on the auction,
// so the database enforces the same per-auction serialization the in-memory
// store gets from its mutex.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates a PostgresRepo over an open connection pool.
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateProfile(ctx context.Context, profile model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (profile_id, email, username) VALUES ($1, $2, $3)`,
		profile.ProfileID, profile.Email, profile.Username,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetProfile(ctx context.Context, profileID string) (model.Profile, error) {
	var profile model.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT profile_id, email, username FROM profiles WHERE profile_id = $1`,
		profileID,
	).Scan(&profile.ProfileID, &profile.Email, &profile.Username)

	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", profileID, auctionerrors.ErrProfileNotFound)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return profile, nil
}

func (r *PostgresRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auctions
		   (auction_id, seller_id, title, description, starting_price, bid_increment,
		    start_time, end_time, status, highest_bid, highest_bidder_id, bid_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)`,
		auction.AuctionID, auction.SellerID, auction.Title, auction.Description,
		auction.StartingPrice, auction.BidIncrement, auction.StartTime, auction.EndTime,
		auction.Status, auction.HighestBid, auction.HighestBidderID, auction.BidCount,
		auction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

const auctionColumns = `auction_id, seller_id, title, description, starting_price, bid_increment,
	start_time, end_time, status, highest_bid, COALESCE(highest_bidder_id, ''), bid_count, created_at`

func scanAuction(row interface{ Scan(dest ...any) error }) (model.Auction, error) {
	var a model.Auction
	err := row.Scan(
		&a.AuctionID, &a.SellerID, &a.Title, &a.Description, &a.StartingPrice,
		&a.BidIncrement, &a.StartTime, &a.EndTime, &a.Status, &a.HighestBid,
		&a.HighestBidderID, &a.BidCount, &a.CreatedAt,
	)
	return a, err
}

func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	auction, err := scanAuction(r.db.QueryRowContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE auction_id = $1`,
		auctionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("failed to query auction: %w", err)
	}
	return auction, nil
}

func (r *PostgresRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	var auctions []model.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auctions: %w", err)
	}
	return auctions, nil
}

// TransitionStatus is a single conditional UPDATE, so concurrent reconcilers
// racing on the same transition see exactly one row affected.
func (r *PostgresRepo) TransitionStatus(ctx context.Context, auctionID string, from, to model.AuctionStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET status = $1 WHERE auction_id = $2 AND status = $3`,
		to, auctionID, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition auction status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Distinguish "CAS lost" from "no such auction".
	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM auctions WHERE auction_id = $1)`, auctionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check auction existence: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("transition auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return false, nil
}

// CommitBid appends the bid and updates the leader fields in one transaction,
// holding a row lock on the auction for the duration.
func (r *PostgresRepo) CommitBid(ctx context.Context, bid model.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var highestBid float64
	err = tx.QueryRowContext(ctx,
		`SELECT highest_bid FROM auctions WHERE auction_id = $1 FOR UPDATE`,
		bid.AuctionID,
	).Scan(&highestBid)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock auction row: %w", err)
	}

	if highestBid > 0 && bid.Amount <= highestBid {
		return fmt.Errorf("commit bid %s (amount %.2f vs highest %.2f): %w",
			bid.BidID, bid.Amount, highestBid, auctionerrors.ErrStaleCommit)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bids (bid_id, auction_id, bidder_id, amount, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		bid.BidID, bid.AuctionID, bid.BidderID, bid.Amount, bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE auctions
		 SET highest_bid = $1, highest_bidder_id = $2, bid_count = bid_count + 1
		 WHERE auction_id = $3`,
		bid.Amount, bid.BidderID, bid.AuctionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update auction leader: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT bid_id, auction_id, bidder_id, amount, created_at
		 FROM bids WHERE auction_id = $1 ORDER BY created_at DESC, amount DESC`,
		auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bids: %w", err)
	}
	return bids, nil
}

func (r *PostgresRepo) CreateNotification(ctx context.Context, notification model.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (notification_id, user_id, auction_id, type, message, read, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`,
		notification.NotificationID, notification.UserID, notification.AuctionID,
		notification.Type, notification.Message, notification.Read, notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetNotificationsByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT notification_id, user_id, COALESCE(auction_id, ''), type, message, read, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.AuctionID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

func (r *PostgresRepo) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	var ownerID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM notifications WHERE notification_id = $1`,
		notificationID,
	).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("mark notification %s: %w", notificationID, auctionerrors.ErrNotificationNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query notification owner: %w", err)
	}
	if ownerID != userID {
		return fmt.Errorf("mark notification %s for user %s: %w", notificationID, userID, auctionerrors.ErrNotOwner)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE notification_id = $1`,
		notificationID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (r *PostgresRepo) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}
