package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/course-enrollment/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/course-enrollment/internal/payment"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &TransactionRepository{
		db: db,
	}
}

func (r *TransactionRepository) Create(t *payment.Transaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByReference(reference string) (*payment.Transaction, error) {
	var t payment.Transaction
	err := r.db.Where("reference = ?", reference).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatusFrom applies the update only when the row's current status is
// in fromStatuses. The returned bool reports whether the row transitioned;
// false means another writer got there first and the caller should reload.
func (r *TransactionRepository) UpdateStatusFrom(reference string, fromStatuses []string, toStatus string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     toStatus,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.Model(&payment.Transaction{}).
		Where("reference = ? AND status IN ?", reference, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *TransactionRepository) ListByStatus(status string, offset, limit int) ([]*payment.Transaction, int64, error) {
	query := r.db.Model(&payment.Transaction{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []*payment.Transaction
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

func (r *TransactionRepository) CountByStatus() (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var counts []statusCount
	err := r.db.Model(&payment.Transaction{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(counts))
	for _, c := range counts {
		stats[c.Status] = c.Count
	}
	return stats, nil
}
