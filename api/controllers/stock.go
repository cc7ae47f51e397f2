package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type createStockEntryRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	InitialQty int       `json:"initial_qty" validate:"min=0"`
}

type stockAdjustRequest struct {
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Reference   string  `json:"reference" validate:"required"`
	ReferenceID *string `json:"reference_id"`
}

// CreateStockEntry opens a stock bucket for a (product, location) pair.
func CreateStockEntry(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createStockEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.CreateEntry(r.Context(), stock.CreateEntryInput{
			ProductID:  req.ProductID,
			LocationID: req.LocationID,
			InitialQty: req.InitialQty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// GetStockEntry returns one entry by id.
func GetStockEntry(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := entryIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.GetEntry(r.Context(), entryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// ListStockByProduct returns every entry holding the product.
func ListStockByProduct(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		entries, err := svc.ListEntriesByProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// ListStockByLocation returns every entry stored at the location.
func ListStockByLocation(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locationID, err := uuid.Parse(chi.URLParam(r, "locationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location id"))
			return
		}

		entries, err := svc.ListEntriesByLocation(r.Context(), locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// AddStock replenishes an entry.
func AddStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustHandler(logg, svc.AddStock)
}

// ReserveStock holds quantity for a pending order.
func ReserveStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustHandler(logg, svc.Reserve)
}

// ConfirmStock burns a hold as sold.
func ConfirmStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustHandler(logg, svc.Confirm)
}

// ReleaseStock returns a hold to the shelf.
func ReleaseStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustHandler(logg, svc.Release)
}

// ListStockTransactions returns the entry's audit log, newest first.
func ListStockTransactions(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := entryIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.ListTransactions(r.Context(), entryID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txns)
	}
}

type adjustFn func(ctx context.Context, input stock.AdjustInput) (*models.StockEntry, error)

func adjustHandler(logg *logger.Logger, adjust adjustFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := entryIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reference, err := enums.ParseStockReference(req.Reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock reference"))
			return
		}

		entry, err := adjust(r.Context(), stock.AdjustInput{
			EntryID:     entryID,
			Quantity:    req.Quantity,
			Reference:   reference,
			ReferenceID: req.ReferenceID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func entryIDFromPath(r *http.Request) (uuid.UUID, error) {
	entryID, err := uuid.Parse(chi.URLParam(r, "entryId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry id")
	}
	return entryID, nil
}
