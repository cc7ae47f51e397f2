package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// TxRunner abstracts the database client's transaction entry point.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the stock ledger operations. Every mutation adjusts the
// entry counters and appends an audit transaction inside one database
// transaction, so the ledger never drifts from the counters.
type Service interface {
	CreateEntry(ctx context.Context, input CreateEntryInput) (*models.StockEntry, error)
	GetEntry(ctx context.Context, id uuid.UUID) (*models.StockEntry, error)
	ListEntriesByProduct(ctx context.Context, productID uuid.UUID) ([]models.StockEntry, error)
	ListEntriesByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockEntry, error)
	AddStock(ctx context.Context, input AdjustInput) (*models.StockEntry, error)
	Reserve(ctx context.Context, input AdjustInput) (*models.StockEntry, error)
	Confirm(ctx context.Context, input AdjustInput) (*models.StockEntry, error)
	Release(ctx context.Context, input AdjustInput) (*models.StockEntry, error)
	ListTransactions(ctx context.Context, entryID uuid.UUID, limit int) ([]models.StockTransaction, error)
}

// CreateEntryInput describes a new (product, location) stock bucket.
type CreateEntryInput struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	InitialQty int       `json:"initial_qty"`
}

// AdjustInput carries a quantity mutation against an existing entry.
type AdjustInput struct {
	EntryID     uuid.UUID            `json:"entry_id"`
	Quantity    int                  `json:"quantity"`
	Reference   enums.StockReference `json:"reference"`
	ReferenceID *string              `json:"reference_id"`
}

type service struct {
	db   TxRunner
	repo Repository
}

// NewService wires a stock service with its repository and transaction runner.
func NewService(runner TxRunner, repo Repository) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("stock tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{db: runner, repo: repo}, nil
}

func (s *service) CreateEntry(ctx context.Context, input CreateEntryInput) (*models.StockEntry, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.LocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id is required")
	}
	if input.InitialQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial quantity cannot be negative")
	}

	entry := &models.StockEntry{
		ProductID:    input.ProductID,
		LocationID:   input.LocationID,
		AvailableQty: input.InitialQty,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateEntry(ctx, entry); err != nil {
			if db.IsUniqueViolation(err, "idx_stock_entries_product_location") {
				return pkgerrors.New(pkgerrors.CodeConflict, "stock entry already exists for product and location")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock entry")
		}
		if input.InitialQty > 0 {
			return repo.AppendTransaction(ctx, &models.StockTransaction{
				EntryID:   entry.ID,
				Kind:      enums.StockTransactionKindIn,
				Quantity:  input.InitialQty,
				Reference: enums.StockReferenceAdmin,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) GetEntry(ctx context.Context, id uuid.UUID) (*models.StockEntry, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id is required")
	}
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock entry")
	}
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
	}
	return entry, nil
}

func (s *service) ListEntriesByProduct(ctx context.Context, productID uuid.UUID) ([]models.StockEntry, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	entries, err := s.repo.ListEntriesByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock entries")
	}
	return entries, nil
}

func (s *service) ListEntriesByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockEntry, error) {
	if locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id is required")
	}
	entries, err := s.repo.ListEntriesByLocation(ctx, locationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock entries")
	}
	return entries, nil
}

// AddStock replenishes the available count and records an "in" transaction.
func (s *service) AddStock(ctx context.Context, input AdjustInput) (*models.StockEntry, error) {
	return s.adjust(ctx, input, enums.StockTransactionKindIn, func(repo Repository) (bool, error) {
		return repo.AddAvailable(ctx, input.EntryID, input.Quantity)
	})
}

// Reserve moves quantity from available to reserved. A failed guard means a
// concurrent caller got there first or the entry simply does not hold enough.
func (s *service) Reserve(ctx context.Context, input AdjustInput) (*models.StockEntry, error) {
	return s.adjust(ctx, input, enums.StockTransactionKindReserve, func(repo Repository) (bool, error) {
		return repo.MoveAvailableToReserved(ctx, input.EntryID, input.Quantity)
	})
}

// Confirm burns reserved quantity as sold.
func (s *service) Confirm(ctx context.Context, input AdjustInput) (*models.StockEntry, error) {
	return s.adjust(ctx, input, enums.StockTransactionKindSold, func(repo Repository) (bool, error) {
		return repo.ConsumeReserved(ctx, input.EntryID, input.Quantity)
	})
}

// Release returns reserved quantity back to available.
func (s *service) Release(ctx context.Context, input AdjustInput) (*models.StockEntry, error) {
	return s.adjust(ctx, input, enums.StockTransactionKindRelease, func(repo Repository) (bool, error) {
		return repo.MoveReservedToAvailable(ctx, input.EntryID, input.Quantity)
	})
}

func (s *service) ListTransactions(ctx context.Context, entryID uuid.UUID, limit int) ([]models.StockTransaction, error) {
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id is required")
	}
	txns, err := s.repo.ListTransactions(ctx, entryID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock transactions")
	}
	return txns, nil
}

func (s *service) adjust(
	ctx context.Context,
	input AdjustInput,
	kind enums.StockTransactionKind,
	mutate func(repo Repository) (bool, error),
) (*models.StockEntry, error) {
	if input.EntryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Reference.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stock reference %q", input.Reference))
	}

	var entry *models.StockEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetEntry(ctx, input.EntryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock entry")
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
		}

		ok, err := mutate(repo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock entry")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for operation").
				WithDetails(map[string]any{
					"entry_id":  input.EntryID,
					"operation": string(kind),
					"requested": input.Quantity,
				})
		}

		if err := repo.AppendTransaction(ctx, &models.StockTransaction{
			EntryID:     input.EntryID,
			Kind:        kind,
			Quantity:    input.Quantity,
			Reference:   input.Reference,
			ReferenceID: input.ReferenceID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock transaction")
		}

		entry, err = repo.GetEntry(ctx, input.EntryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
