package repository

import (
	"context"
	"time"

	"github.com/ganhesocial/ganhesocial/internal/action/domain"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	"github.com/ganhesocial/ganhesocial/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Reserve(ctx context.Context, conn *gorm.DB, entry *domain.Entry) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`INSERT INTO action_entries
		   (id, action_id, user_id, account_name, order_id, url, network, action_type,
		    value, status, processing, verify_attempts, created_at)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (
		   SELECT 1 FROM action_entries
		   WHERE order_id = ? AND account_name = ? AND status IN (?, ?)
		 )`,
		entry.ID, entry.ActionID, entry.UserID, entry.AccountName, entry.OrderID,
		entry.URL, entry.Network, entry.ActionType, entry.Value, string(domain.StatusPending),
		false, 0, entry.CreatedAt,
		entry.OrderID, entry.AccountName,
		string(domain.StatusPending), string(domain.StatusValid),
	)
	if res.Error != nil {
		if db.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, entry *domain.Entry) error {
	return conn.WithContext(ctx).Create(entry).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id int64) (*domain.Entry, error) {
	var entry domain.Entry
	err := conn.WithContext(ctx).Raw(
		`SELECT * FROM action_entries WHERE id = ?`, id,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) CountForOrder(ctx context.Context, conn *gorm.DB, orderID string, statuses []domain.Status) (int64, error) {
	var count int64
	err := conn.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("order_id = ?", orderID).
		Where("status IN ?", statusStrings(statuses)).
		Count(&count).Error
	return count, err
}

func (r *repo) ExistsForAccount(ctx context.Context, conn *gorm.DB, orderID, accountName string, statuses []domain.Status) (bool, error) {
	var count int64
	err := conn.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("order_id = ?", orderID).
		Where("account_name = ?", accountName).
		Where("status IN ?", statusStrings(statuses)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindPendingBatch(ctx context.Context, conn *gorm.DB, network orderdomain.Network, actionType orderdomain.ActionType, limit int) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := conn.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("network = ?", network).
		Where("action_type = ?", actionType).
		Where("status = ?", string(domain.StatusPending)).
		Order("created_at asc, id asc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) AcquireLease(ctx context.Context, conn *gorm.DB, id int64, now time.Time, leaseTimeout time.Duration) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`UPDATE action_entries
		 SET processing = ?, processing_at = ?
		 WHERE id = ?
		   AND status = ?
		   AND (processing = ? OR processing_at IS NULL OR processing_at <= ?)`,
		true, now, id, string(domain.StatusPending), false, now.Add(-leaseTimeout),
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ReleaseLease(ctx context.Context, conn *gorm.DB, id int64) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE action_entries SET processing = ? WHERE id = ?`,
		false, id,
	).Error
}

func (r *repo) Finalize(ctx context.Context, conn *gorm.DB, id int64, status domain.Status, at time.Time) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`UPDATE action_entries
		 SET status = ?, verified_at = ?, processing = ?
		 WHERE id = ? AND status = ?`,
		string(status), at, false, id, string(domain.StatusPending),
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) IncrementAttempts(ctx context.Context, conn *gorm.DB, id int64) (int, error) {
	err := conn.WithContext(ctx).Exec(
		`UPDATE action_entries
		 SET verify_attempts = verify_attempts + 1, processing = ?
		 WHERE id = ?`,
		false, id,
	).Error
	if err != nil {
		return 0, err
	}
	var attempts int
	err = conn.WithContext(ctx).Raw(
		`SELECT verify_attempts FROM action_entries WHERE id = ?`, id,
	).Scan(&attempts).Error
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *repo) PendingValueSum(ctx context.Context, conn *gorm.DB, userID int64) (float64, error) {
	var sum *float64
	err := conn.WithContext(ctx).Raw(
		`SELECT SUM(value) FROM action_entries WHERE user_id = ? AND status = ?`,
		userID, string(domain.StatusPending),
	).Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repo) DeleteOlderThan(ctx context.Context, conn *gorm.DB, cutoff time.Time) (int64, error) {
	res := conn.WithContext(ctx).Exec(
		`DELETE FROM action_entries WHERE created_at < ?`, cutoff,
	)
	return res.RowsAffected, res.Error
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
