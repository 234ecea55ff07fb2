package thirdparty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental/house"
)

func sampleHouse() house.House {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return house.House{
		ID:              3333,
		Name:            "Maple Court",
		Location:        "Chengdu",
		Price:           decimal.RequireFromString("5000.50"),
		Status:          house.StatusPending,
		EstablishedTime: time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC),
		CreatedTime:     created,
		UpdatedTime:     created,
	}
}

func TestHTTPClient_PublishStatuses(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		accepted bool
		wantErr  bool
	}{
		{name: "created", status: http.StatusCreated, accepted: true},
		{name: "ok", status: http.StatusOK, accepted: true},
		{name: "rejected", status: http.StatusUnprocessableEntity},
		{name: "conflict", status: http.StatusConflict},
		{name: "server error", status: http.StatusBadGateway, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client := NewHTTPClient(srv.URL, srv.Client(), nil)
			accepted, err := client.Publish(context.Background(), sampleHouse())
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.accepted, accepted)
		})
	}
}

func TestHTTPClient_SendsPayload(t *testing.T) {
	var (
		gotPath   string
		gotReqID  string
		gotMethod string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotReqID = r.Header.Get("X-Request-Id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/", srv.Client(), nil)
	accepted, err := client.Publish(context.Background(), sampleHouse())
	require.NoError(t, err)
	require.True(t, accepted)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/houses/house", gotPath)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, float64(3333), gotBody["id"])
	assert.Equal(t, "Chengdu", gotBody["location"])
	assert.Equal(t, 5000.5, gotBody["price"])
	assert.Equal(t, "PENDING", gotBody["status"])
	assert.Equal(t, "2010-05-01T00:00:00", gotBody["establishedTime"])
	assert.Equal(t, "2024-03-01T10:30:00", gotBody["createdTime"])
}

func TestHTTPClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewHTTPClient(srv.URL, srv.Client(), nil)
	accepted, err := client.Publish(ctx, sampleHouse())
	require.Error(t, err)
	assert.False(t, accepted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	accepted, err := NewHTTPClient(url, nil, nil).Publish(context.Background(), sampleHouse())
	require.Error(t, err)
	assert.False(t, accepted)
}

func TestPayload_OmitsZeroEstablishedTime(t *testing.T) {
	h := sampleHouse()
	h.EstablishedTime = time.Time{}
	h.Name = ""

	data, err := json.Marshal(newPayload(h))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "establishedTime")
	assert.NotContains(t, fields, "name")
	assert.Equal(t, "5000.50", string(newPayload(h).Price))
}

func TestNoop_AcceptsEverything(t *testing.T) {
	accepted, err := Noop{}.Publish(context.Background(), sampleHouse())
	require.NoError(t, err)
	assert.True(t, accepted)
}
