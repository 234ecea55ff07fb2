package house

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a house listing.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusClosed  Status = "CLOSED"
)

// ParseStatus normalizes s and rejects values outside the known set.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("house: unknown status %q", s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusClosed:
		return true
	default:
		return false
	}
}

// House is the domain representation of a listing. It mirrors the houses
// table and carries no JSON annotations so different presentation layers can
// shape it as they need.
//
// All time values are wall-clock times in the zone the Mapper was built with.
type House struct {
	ID              int64
	Name            string
	Location        string
	Price           decimal.Decimal
	Status          Status
	EstablishedTime time.Time
	CreatedTime     time.Time
	UpdatedTime     time.Time
}

// CreateRequest contains the caller supplied fields of a new listing. Nil
// means the field was absent from the request.
type CreateRequest struct {
	Name            *string
	Location        *string
	Price           *decimal.Decimal
	EstablishedTime *time.Time
	Status          *Status
}
