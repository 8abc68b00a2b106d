package repository

import (
	"time"

	"anoa.com/lumirarewards/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	// Create appends a ledger row. Returns (false, nil) when a row with the
	// same idempotency key already exists and nothing was written.
	Create(txn *model.Transaction) (inserted bool, err error)
	FindByIdempotencyKey(key string) (*model.Transaction, error)
	SumByUser(userID uuid.UUID) (int, error)
	// SumBySourceBetween totals positive (credit) amounts only; debits do not
	// refund daily cap headroom.
	SumBySourceBetween(userID uuid.UUID, source string, from, to time.Time) (int, error)
	ListByUser(userID uuid.UUID, source string, offset, limit int) ([]model.Transaction, error)
	FindExpired(now time.Time, batchSize int) ([]model.Transaction, error)
	FindExpiringBetween(from, to time.Time, batchSize int) ([]model.Transaction, error)
	MarkWarned(ids []uint, at time.Time) error
	MarkReversed(ids []uint, at time.Time, reversalID *uint) error
	TopBalances(limit int) ([]model.UserBalance, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(txn *model.Transaction) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(txn)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *transactionRepository) FindByIdempotencyKey(key string) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.Where("idempotency_key = ?", key).First(&txn).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) SumByUser(userID uuid.UUID) (int, error) {
	var total int64
	err := r.db.Model(&model.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *transactionRepository) SumBySourceBetween(userID uuid.UUID, source string, from, to time.Time) (int, error) {
	var total int64
	err := r.db.Model(&model.Transaction{}).
		Where("user_id = ? AND source = ? AND amount > 0 AND created_at >= ? AND created_at < ?",
			userID, source, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *transactionRepository) ListByUser(userID uuid.UUID, source string, offset, limit int) ([]model.Transaction, error) {
	var txns []model.Transaction
	q := r.db.Where("user_id = ?", userID)
	if source != "" {
		q = q.Where("source = ?", source)
	}
	err := q.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) FindExpired(now time.Time, batchSize int) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := r.db.
		Where("amount > 0 AND expires_at IS NOT NULL AND expires_at <= ? AND reversed_at IS NULL", now).
		Order("id ASC").
		Limit(batchSize).
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) FindExpiringBetween(from, to time.Time, batchSize int) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := r.db.
		Where("amount > 0 AND expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ? AND reversed_at IS NULL AND warned_at IS NULL",
			from, to).
		Order("id ASC").
		Limit(batchSize).
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) MarkWarned(ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Transaction{}).
		Where("id IN ? AND warned_at IS NULL", ids).
		Update("warned_at", at).Error
}

func (r *transactionRepository) MarkReversed(ids []uint, at time.Time, reversalID *uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Transaction{}).
		Where("id IN ? AND reversed_at IS NULL", ids).
		Updates(map[string]interface{}{
			"reversed_at": at,
			"reversal_id": reversalID,
		}).Error
}

func (r *transactionRepository) TopBalances(limit int) ([]model.UserBalance, error) {
	var balances []model.UserBalance
	err := r.db.Model(&model.Transaction{}).
		Select("user_id, SUM(amount) as total_xp").
		Group("user_id").
		Order("total_xp DESC").
		Limit(limit).
		Scan(&balances).Error
	return balances, err
}
