// Package thirdparty publishes new listings to the external system of record.
package thirdparty

import (
	"encoding/json"
	"time"

	"rental/house"
)

const localDateTime = "2006-01-02T15:04:05"

// housePayload is the body the system of record accepts for a listing.
type housePayload struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name,omitempty"`
	Location        string      `json:"location"`
	Price           json.Number `json:"price"`
	Status          string      `json:"status"`
	EstablishedTime string      `json:"establishedTime,omitempty"`
	CreatedTime     string      `json:"createdTime"`
	UpdatedTime     string      `json:"updatedTime"`
}

func newPayload(h house.House) housePayload {
	p := housePayload{
		ID:          h.ID,
		Name:        h.Name,
		Location:    h.Location,
		Price:       json.Number(h.Price.String()),
		Status:      string(h.Status),
		CreatedTime: formatTime(h.CreatedTime),
		UpdatedTime: formatTime(h.UpdatedTime),
	}
	if !h.EstablishedTime.IsZero() {
		p.EstablishedTime = formatTime(h.EstablishedTime)
	}
	return p
}

func formatTime(t time.Time) string {
	return t.Format(localDateTime)
}
