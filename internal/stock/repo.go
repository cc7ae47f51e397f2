package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

// Repository manages persistence for stock entries and their transaction log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.StockEntry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*models.StockEntry, error)
	GetEntryByProductLocation(ctx context.Context, productID, locationID uuid.UUID) (*models.StockEntry, error)
	ListEntriesByProduct(ctx context.Context, productID uuid.UUID) ([]models.StockEntry, error)
	ListEntriesByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockEntry, error)
	AddAvailable(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	MoveAvailableToReserved(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	ConsumeReserved(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	MoveReservedToAvailable(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	AppendTransaction(ctx context.Context, txn *models.StockTransaction) error
	ListTransactions(ctx context.Context, entryID uuid.UUID, limit int) ([]models.StockTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.StockEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) GetEntry(ctx context.Context, id uuid.UUID) (*models.StockEntry, error) {
	var entry models.StockEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) GetEntryByProductLocation(ctx context.Context, productID, locationID uuid.UUID) (*models.StockEntry, error) {
	var entry models.StockEntry
	err := r.db.WithContext(ctx).
		First(&entry, "product_id = ? AND location_id = ?", productID, locationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListEntriesByProduct(ctx context.Context, productID uuid.UUID) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListEntriesByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	if err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// AddAvailable increments the available count unconditionally. It reports
// false only when the entry does not exist.
func (r *repository) AddAvailable(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, entryID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MoveAvailableToReserved shifts qty from available to reserved. The WHERE
// guard makes the shift atomic: concurrent callers race on the same row and
// only those that still fit within available_qty succeed.
func (r *repository) MoveAvailableToReserved(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET available_qty = available_qty - ?,
			reserved_qty = reserved_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_qty >= ?
	`, qty, qty, entryID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ConsumeReserved burns qty out of the reserved count without returning it
// to available. Guarded the same way as MoveAvailableToReserved.
func (r *repository) ConsumeReserved(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND reserved_qty >= ?
	`, qty, entryID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MoveReservedToAvailable returns qty from reserved back to available.
func (r *repository) MoveReservedToAvailable(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET reserved_qty = reserved_qty - ?,
			available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND reserved_qty >= ?
	`, qty, qty, entryID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.StockTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, entryID uuid.UUID, limit int) ([]models.StockTransaction, error) {
	var txns []models.StockTransaction
	q := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
