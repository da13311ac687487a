package document

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidDocument is matched by every ValidationError via errors.Is
var ErrInvalidDocument = errors.New("invalid document")

// MaxItems bounds the number of line items a single document may carry
const MaxItems = 500

// ValidationError reports the first field that failed validation
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// Validate checks a normalized document before rendering
func (d *Document) Validate() error {
	if _, ok := titles[d.Type]; !ok {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unsupported document type %q", d.Type)}
	}
	if err := validateDate("date", d.Date); err != nil {
		return err
	}
	if d.DueDate != "" {
		if err := validateDate("dueDate", d.DueDate); err != nil {
			return err
		}
	}
	if !inRange(d.Business.TaxRate, 0, 100) {
		return &ValidationError{Field: "business.taxRate", Message: "must be between 0 and 100"}
	}
	// Normalize falls back to a posted totals.taxRate when the business has none
	if !inRange(d.Totals.TaxRate, 0, 100) {
		return &ValidationError{Field: "totals.taxRate", Message: "must be between 0 and 100"}
	}
	if len(d.Items) > MaxItems {
		return &ValidationError{Field: "items", Message: fmt.Sprintf("at most %d items allowed", MaxItems)}
	}
	for i, it := range d.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case !finite(it.Quantity):
			return &ValidationError{Field: field + ".quantity", Message: "must be a finite number"}
		case it.Quantity < 0:
			return &ValidationError{Field: field + ".quantity", Message: "must not be negative"}
		case !finite(it.Price):
			return &ValidationError{Field: field + ".price", Message: "must be a finite number"}
		case it.Price < 0:
			return &ValidationError{Field: field + ".price", Message: "must not be negative"}
		case !inRange(it.Discount, 0, 100):
			return &ValidationError{Field: field + ".discount", Message: "must be between 0 and 100"}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// inRange is false for NaN
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func validateDate(field, value string) error {
	if _, err := time.Parse(DateLayout, strings.TrimSpace(value)); err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", value)}
	}
	return nil
}
