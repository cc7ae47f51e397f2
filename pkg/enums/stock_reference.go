package enums

import "fmt"

// StockReference categorizes what caused a stock transaction.
type StockReference string

const (
	StockReferenceOrder      StockReference = "order"
	StockReferenceCart       StockReference = "cart"
	StockReferenceAdmin      StockReference = "admin"
	StockReferenceReturn     StockReference = "return"
	StockReferenceAdjustment StockReference = "adjustment"
)

var validStockReferences = []StockReference{
	StockReferenceOrder,
	StockReferenceCart,
	StockReferenceAdmin,
	StockReferenceReturn,
	StockReferenceAdjustment,
}

// IsValid checks whether the given reference matches the canonical enum.
func (r StockReference) IsValid() bool {
	for _, candidate := range validStockReferences {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockReference converts raw strings into StockReference.
func ParseStockReference(value string) (StockReference, error) {
	for _, candidate := range validStockReferences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock reference %q", value)
}
