package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rental/house"
)

// localDateTime is the wire layout for listing times. Values carry no zone
// and are read in the service's configured location.
const localDateTime = "2006-01-02T15:04:05"

type createHouseRequest struct {
	Name            *string      `json:"name"`
	Location        *string      `json:"location"`
	Price           *json.Number `json:"price"`
	EstablishedTime *string      `json:"establishedTime"`
	Status          *string      `json:"status"`
	CreatedTime     *string      `json:"createdTime"`
	UpdatedTime     *string      `json:"updatedTime"`
}

// toDomain converts the payload. Malformed values are reported as field
// errors; absent required fields are left nil for house validation.
// Client supplied created and updated times are ignored.
func (r createHouseRequest) toDomain(loc *time.Location) (house.CreateRequest, error) {
	var (
		out    house.CreateRequest
		fields []house.FieldError
	)
	out.Name = r.Name
	out.Location = r.Location

	if r.Price != nil {
		price, err := decimal.NewFromString(r.Price.String())
		if err != nil {
			fields = append(fields, house.FieldError{Field: "price", Reason: "must be a number"})
		} else {
			out.Price = &price
		}
	}
	if r.EstablishedTime != nil && *r.EstablishedTime != "" {
		t, err := time.ParseInLocation(localDateTime, *r.EstablishedTime, loc)
		if err != nil {
			fields = append(fields, house.FieldError{Field: "establishedTime", Reason: "must match " + localDateTime})
		} else {
			out.EstablishedTime = &t
		}
	}
	if r.Status != nil && *r.Status != "" {
		status := house.Status(strings.ToUpper(strings.TrimSpace(*r.Status)))
		out.Status = &status
	}

	if len(fields) > 0 {
		return house.CreateRequest{}, &house.ValidationError{Fields: fields}
	}
	return out, nil
}

type houseResponse struct {
	ID              int64       `json:"id"`
	Name            *string     `json:"name"`
	Location        string      `json:"location"`
	Price           json.Number `json:"price"`
	Status          string      `json:"status"`
	EstablishedTime *string     `json:"establishedTime"`
	CreatedTime     string      `json:"createdTime"`
	UpdatedTime     string      `json:"updatedTime"`
}

func toHouseResponse(h house.House) houseResponse {
	resp := houseResponse{
		ID:          h.ID,
		Location:    h.Location,
		Price:       json.Number(h.Price.String()),
		Status:      string(h.Status),
		CreatedTime: h.CreatedTime.Format(localDateTime),
		UpdatedTime: h.UpdatedTime.Format(localDateTime),
	}
	if h.Name != "" {
		name := h.Name
		resp.Name = &name
	}
	if !h.EstablishedTime.IsZero() {
		est := h.EstablishedTime.Format(localDateTime)
		resp.EstablishedTime = &est
	}
	return resp
}

type pageResponse struct {
	Content       []houseResponse `json:"content"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
	Number        int             `json:"number"`
	Size          int             `json:"size"`
}

func toPageResponse(p house.Page) pageResponse {
	content := make([]houseResponse, 0, len(p.Content))
	for _, h := range p.Content {
		content = append(content, toHouseResponse(h))
	}
	return pageResponse{
		Content:       content,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Number:        p.Number,
		Size:          p.Size,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeNotFound     = "Not Found Exception"
	codeLackArgument = "Lack Argument Exception"
	codeSyncFailed   = "Fail Update Info To 3rd Client"
	codeInternal     = "Internal Error"
)
