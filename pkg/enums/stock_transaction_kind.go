package enums

import "fmt"

// StockTransactionKind maps to the stock_transaction_kind enum in Postgres.
type StockTransactionKind string

const (
	StockTransactionKindIn      StockTransactionKind = "in"
	StockTransactionKindReserve StockTransactionKind = "reserve"
	StockTransactionKindRelease StockTransactionKind = "release"
	StockTransactionKindSold    StockTransactionKind = "sold"
)

var validStockTransactionKinds = []StockTransactionKind{
	StockTransactionKindIn,
	StockTransactionKindReserve,
	StockTransactionKindRelease,
	StockTransactionKindSold,
}

// IsValid checks whether the given kind matches the canonical enum.
func (k StockTransactionKind) IsValid() bool {
	for _, candidate := range validStockTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseStockTransactionKind converts raw strings into StockTransactionKind.
func ParseStockTransactionKind(value string) (StockTransactionKind, error) {
	for _, candidate := range validStockTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock transaction kind %q", value)
}
