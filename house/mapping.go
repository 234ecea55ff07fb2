package house

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row mirrors a houses table row. Times are stored as epoch milliseconds.
type Row struct {
	ID              int64
	Name            *string
	Location        string
	Price           string
	Status          string
	EstablishedTime *int64
	CreatedTime     int64
	UpdatedTime     int64
}

// ToTimestamp interprets the wall clock of t in loc and returns the epoch
// milliseconds of that instant.
func ToTimestamp(t time.Time, loc *time.Location) int64 {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return wall.UnixMilli()
}

// FromTimestamp is the inverse of ToTimestamp.
func FromTimestamp(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc)
}

// Mapper converts between requests, domain values and rows. It is built once
// at startup and shared by the service and the repository.
type Mapper struct {
	loc *time.Location
}

// NewMapper returns a Mapper for wall-clock times in loc. A nil loc means UTC.
func NewMapper(loc *time.Location) Mapper {
	if loc == nil {
		loc = time.UTC
	}
	return Mapper{loc: loc}
}

func (m Mapper) location() *time.Location {
	if m.loc == nil {
		return time.UTC
	}
	return m.loc
}

// Now returns the current wall-clock time in the mapper zone, truncated to
// the millisecond precision the store keeps.
func (m Mapper) Now() time.Time {
	return time.Now().In(m.location()).Truncate(time.Millisecond)
}

// FromRequest builds the record to insert. Created and updated time are set to
// now; the request is expected to be validated already.
func (m Mapper) FromRequest(req CreateRequest, now time.Time) House {
	h := House{
		Status:      StatusPending,
		CreatedTime: now,
		UpdatedTime: now,
	}
	if req.Name != nil {
		h.Name = *req.Name
	}
	if req.Location != nil {
		h.Location = *req.Location
	}
	if req.Price != nil {
		h.Price = *req.Price
	}
	if req.EstablishedTime != nil {
		h.EstablishedTime = *req.EstablishedTime
	}
	if req.Status != nil && *req.Status != "" {
		h.Status = *req.Status
	}
	return h
}

func (m Mapper) ToRow(h House) Row {
	loc := m.location()
	row := Row{
		ID:          h.ID,
		Location:    h.Location,
		Price:       h.Price.String(),
		Status:      string(h.Status),
		CreatedTime: ToTimestamp(h.CreatedTime, loc),
		UpdatedTime: ToTimestamp(h.UpdatedTime, loc),
	}
	if row.Status == "" {
		row.Status = string(StatusPending)
	}
	if h.Name != "" {
		name := h.Name
		row.Name = &name
	}
	if !h.EstablishedTime.IsZero() {
		ts := ToTimestamp(h.EstablishedTime, loc)
		row.EstablishedTime = &ts
	}
	return row
}

func (m Mapper) FromRow(row Row) (House, error) {
	loc := m.location()
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return House{}, err
	}
	h := House{
		ID:          row.ID,
		Location:    row.Location,
		Price:       price,
		Status:      Status(row.Status),
		CreatedTime: FromTimestamp(row.CreatedTime, loc),
		UpdatedTime: FromTimestamp(row.UpdatedTime, loc),
	}
	if row.Name != nil {
		h.Name = *row.Name
	}
	if row.EstablishedTime != nil {
		h.EstablishedTime = FromTimestamp(*row.EstablishedTime, loc)
	}
	return h, nil
}
