package economy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports malformed input to a create/update call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError reports an adjustment or transfer that would drive
// a resource's stock negative. The operation performs no mutation.
type InsufficientStockError struct {
	ResourceID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for resource %s: have %s, need %s",
		e.ResourceID, e.Available.String(), e.Requested.String())
}
