package house

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Prices are stored as NUMERIC(14,2).
const priceScale = 2

var priceLimit = decimal.New(1, 14-priceScale)

// Validate checks the fields required to create a listing.
func (r CreateRequest) Validate() error {
	var fields []FieldError

	if r.Location == nil || strings.TrimSpace(*r.Location) == "" {
		fields = append(fields, FieldError{Field: "location", Reason: "must not be null"})
	}
	switch {
	case r.Price == nil:
		fields = append(fields, FieldError{Field: "price", Reason: "must not be null"})
	case r.Price.IsNegative():
		fields = append(fields, FieldError{Field: "price", Reason: "must not be negative"})
	case !r.Price.Equal(r.Price.Truncate(priceScale)):
		fields = append(fields, FieldError{Field: "price", Reason: "must have at most 2 decimal places"})
	case r.Price.GreaterThanOrEqual(priceLimit):
		fields = append(fields, FieldError{Field: "price", Reason: "must be less than " + priceLimit.String()})
	}
	if r.EstablishedTime == nil || r.EstablishedTime.IsZero() {
		fields = append(fields, FieldError{Field: "establishedTime", Reason: "must not be null"})
	}
	if r.Status != nil && *r.Status != "" && !r.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Reason: "is not a known status"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
