package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepository struct {
	createEntryFn      func(ctx context.Context, entry *models.StockEntry) error
	getEntryFn         func(ctx context.Context, id uuid.UUID) (*models.StockEntry, error)
	moveToReservedFn   func(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	consumeReservedFn  func(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	moveToAvailableFn  func(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	addAvailableFn     func(ctx context.Context, entryID uuid.UUID, qty int) (bool, error)
	appendFn           func(ctx context.Context, txn *models.StockTransaction) error
	listTransactionsFn func(ctx context.Context, entryID uuid.UUID, limit int) ([]models.StockTransaction, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateEntry(ctx context.Context, entry *models.StockEntry) error {
	if f.createEntryFn != nil {
		return f.createEntryFn(ctx, entry)
	}
	entry.ID = uuid.New()
	return nil
}

func (f *fakeRepository) GetEntry(ctx context.Context, id uuid.UUID) (*models.StockEntry, error) {
	if f.getEntryFn != nil {
		return f.getEntryFn(ctx, id)
	}
	return &models.StockEntry{ID: id}, nil
}

func (f *fakeRepository) GetEntryByProductLocation(ctx context.Context, productID, locationID uuid.UUID) (*models.StockEntry, error) {
	return nil, nil
}

func (f *fakeRepository) ListEntriesByProduct(ctx context.Context, productID uuid.UUID) ([]models.StockEntry, error) {
	return nil, nil
}

func (f *fakeRepository) ListEntriesByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockEntry, error) {
	return nil, nil
}

func (f *fakeRepository) AddAvailable(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	if f.addAvailableFn != nil {
		return f.addAvailableFn(ctx, entryID, qty)
	}
	return true, nil
}

func (f *fakeRepository) MoveAvailableToReserved(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	if f.moveToReservedFn != nil {
		return f.moveToReservedFn(ctx, entryID, qty)
	}
	return true, nil
}

func (f *fakeRepository) ConsumeReserved(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	if f.consumeReservedFn != nil {
		return f.consumeReservedFn(ctx, entryID, qty)
	}
	return true, nil
}

func (f *fakeRepository) MoveReservedToAvailable(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	if f.moveToAvailableFn != nil {
		return f.moveToAvailableFn(ctx, entryID, qty)
	}
	return true, nil
}

func (f *fakeRepository) AppendTransaction(ctx context.Context, txn *models.StockTransaction) error {
	if f.appendFn != nil {
		return f.appendFn(ctx, txn)
	}
	return nil
}

func (f *fakeRepository) ListTransactions(ctx context.Context, entryID uuid.UUID, limit int) ([]models.StockTransaction, error) {
	if f.listTransactionsFn != nil {
		return f.listTransactionsFn(ctx, entryID, limit)
	}
	return nil, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(stubTxRunner{}, repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_ReserveValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeRepository{})
	ctx := context.Background()

	cases := []struct {
		name  string
		input AdjustInput
	}{
		{"missing entry", AdjustInput{Quantity: 1, Reference: enums.StockReferenceOrder}},
		{"zero quantity", AdjustInput{EntryID: uuid.New(), Quantity: 0, Reference: enums.StockReferenceOrder}},
		{"negative quantity", AdjustInput{EntryID: uuid.New(), Quantity: -2, Reference: enums.StockReferenceOrder}},
		{"bad reference", AdjustInput{EntryID: uuid.New(), Quantity: 1, Reference: "bogus"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Reserve(ctx, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_ReserveInsufficientStock(t *testing.T) {
	t.Parallel()

	entryID := uuid.New()
	repo := &fakeRepository{
		moveToReservedFn: func(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Reserve(context.Background(), AdjustInput{
		EntryID:   entryID,
		Quantity:  3,
		Reference: enums.StockReferenceOrder,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["requested"] != 3 {
		t.Fatalf("expected requested quantity in details, got %v", details["requested"])
	}
}

func TestService_ReserveUnknownEntry(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		getEntryFn: func(ctx context.Context, id uuid.UUID) (*models.StockEntry, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Reserve(context.Background(), AdjustInput{
		EntryID:   uuid.New(),
		Quantity:  1,
		Reference: enums.StockReferenceOrder,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_ConfirmAppendsSoldTransaction(t *testing.T) {
	t.Parallel()

	entryID := uuid.New()
	orderRef := "order-1042"
	var appended *models.StockTransaction
	repo := &fakeRepository{
		appendFn: func(ctx context.Context, txn *models.StockTransaction) error {
			appended = txn
			return nil
		},
	}
	svc := newTestService(t, repo)

	entry, err := svc.Confirm(context.Background(), AdjustInput{
		EntryID:     entryID,
		Quantity:    2,
		Reference:   enums.StockReferenceOrder,
		ReferenceID: &orderRef,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry in response")
	}
	if appended == nil {
		t.Fatal("expected transaction to be appended")
	}
	if appended.Kind != enums.StockTransactionKindSold {
		t.Fatalf("expected sold transaction, got %s", appended.Kind)
	}
	if appended.Quantity != 2 || appended.EntryID != entryID {
		t.Fatalf("unexpected transaction: %+v", appended)
	}
	if appended.ReferenceID == nil || *appended.ReferenceID != orderRef {
		t.Fatalf("expected order reference on transaction, got %v", appended.ReferenceID)
	}
}

func TestService_ReleaseAppendsReleaseTransaction(t *testing.T) {
	t.Parallel()

	var appended *models.StockTransaction
	repo := &fakeRepository{
		appendFn: func(ctx context.Context, txn *models.StockTransaction) error {
			appended = txn
			return nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Release(context.Background(), AdjustInput{
		EntryID:   uuid.New(),
		Quantity:  1,
		Reference: enums.StockReferenceCart,
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if appended == nil || appended.Kind != enums.StockTransactionKindRelease {
		t.Fatalf("expected release transaction, got %+v", appended)
	}
}

func TestService_CreateEntryConflict(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		createEntryFn: func(ctx context.Context, entry *models.StockEntry) error {
			return errors.New("UNIQUE constraint failed: idx_stock_entries_product_location")
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		ProductID:  uuid.New(),
		LocationID: uuid.New(),
		InitialQty: 1,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestService_CreateEntrySeedsInTransaction(t *testing.T) {
	t.Parallel()

	var appended *models.StockTransaction
	repo := &fakeRepository{
		appendFn: func(ctx context.Context, txn *models.StockTransaction) error {
			appended = txn
			return nil
		},
	}
	svc := newTestService(t, repo)

	entry, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		ProductID:  uuid.New(),
		LocationID: uuid.New(),
		InitialQty: 7,
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if entry.AvailableQty != 7 {
		t.Fatalf("expected available qty 7, got %d", entry.AvailableQty)
	}
	if appended == nil || appended.Kind != enums.StockTransactionKindIn || appended.Quantity != 7 {
		t.Fatalf("expected seed transaction, got %+v", appended)
	}
}
