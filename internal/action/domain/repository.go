package domain

import (
	"context"
	"time"

	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	"gorm.io/gorm"
)

type Repository interface {
	// Reserve atomically inserts entry unless a live entry already
	// exists for its (order, account) pair. Returns false on a race
	// loss; the partial unique index backs this as defense-in-depth.
	Reserve(ctx context.Context, db *gorm.DB, entry *Entry) (bool, error)

	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Entry, error)

	CountForOrder(ctx context.Context, db *gorm.DB, orderID string, statuses []Status) (int64, error)
	ExistsForAccount(ctx context.Context, db *gorm.DB, orderID, accountName string, statuses []Status) (bool, error)

	// FindPendingBatch returns unverified entries for one worker's
	// (network, action type), oldest first, capped at limit. Leased
	// entries are included; the per-entry lease decides ownership.
	FindPendingBatch(ctx context.Context, db *gorm.DB, network orderdomain.Network, actionType orderdomain.ActionType, limit int) ([]Entry, error)

	// AcquireLease claims a pending entry for processing. Only entries
	// not currently leased, or whose lease aged past leaseTimeout, are
	// claimable. Returns false when some other cycle owns it.
	AcquireLease(ctx context.Context, db *gorm.DB, id int64, now time.Time, leaseTimeout time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, db *gorm.DB, id int64) error

	// Finalize moves a pending entry to a terminal status and releases
	// its lease in the same write. Returns false when the entry already
	// left pending (the transition happens at most once).
	Finalize(ctx context.Context, db *gorm.DB, id int64, status Status, at time.Time) (bool, error)

	// IncrementAttempts bumps verify_attempts, releases the lease, and
	// returns the new counter value.
	IncrementAttempts(ctx context.Context, db *gorm.DB, id int64) (int, error)

	PendingValueSum(ctx context.Context, db *gorm.DB, userID int64) (float64, error)
	DeleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
