package house

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage_Totals(t *testing.T) {
	cases := []struct {
		total     int64
		size      int
		wantPages int
	}{
		{0, 20, 0},
		{2, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{41, 20, 3},
	}
	for _, tc := range cases {
		page := NewPage(nil, PageRequest{Size: tc.size}, tc.total)
		assert.Equal(t, tc.wantPages, page.TotalPages, "total=%d size=%d", tc.total, tc.size)
		assert.Equal(t, tc.total, page.TotalElements)
		assert.NotNil(t, page.Content)
	}
}

func TestPageRequest_Normalize(t *testing.T) {
	req := PageRequest{Page: -3, Size: 5000}.Normalize()

	assert.Equal(t, 0, req.Page)
	assert.Equal(t, MaxPageSize, req.Size)
	assert.Equal(t, DefaultSort, req.Sort)
	assert.Equal(t, int64(0), req.Offset())

	assert.Equal(t, int64(40), PageRequest{Page: 2, Size: 20}.Offset())
}

func TestPageRequest_NormalizeKeepsOffsetInRange(t *testing.T) {
	req := PageRequest{Page: math.MaxInt / 2, Size: MaxPageSize}.Normalize()

	assert.LessOrEqual(t, int64(req.Page), math.MaxInt64/int64(MaxPageSize))
	assert.GreaterOrEqual(t, req.Offset(), int64(0))

	req = PageRequest{Page: math.MaxInt, Size: 1}.Normalize()
	assert.Equal(t, int64(math.MaxInt), req.Offset())
}

func TestOrderClause(t *testing.T) {
	clause, err := orderClause([]Order{{Property: "createdTime", Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, "created_time DESC NULLS LAST, id ASC", clause)

	clause, err = orderClause([]Order{{Property: "price"}, {Property: "id", Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, "price ASC NULLS LAST, id DESC NULLS LAST", clause)

	_, err = orderClause([]Order{{Property: "price; DROP TABLE houses"}})
	assert.True(t, errors.Is(err, ErrInvalidSort))
}

func TestCreateRequest_Validate(t *testing.T) {
	assert.NoError(t, chengduRequest().Validate())

	err := CreateRequest{}.Validate()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, err, ErrValidation)

	fields := make([]string, 0, len(vErr.Fields))
	for _, f := range vErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"location", "price", "establishedTime"}, fields)

	req := chengduRequest()
	negative := decimal.NewFromInt(-1)
	req.Price = &negative
	bogus := Status("SOLD")
	req.Status = &bogus
	err = req.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 2)
}

func TestCreateRequest_ValidatePriceFitsColumn(t *testing.T) {
	withPrice := func(v string) CreateRequest {
		req := chengduRequest()
		p := decimal.RequireFromString(v)
		req.Price = &p
		return req
	}

	for _, v := range []string{"0", "3000.5", "3000.500", "999999999999.99"} {
		assert.NoError(t, withPrice(v).Validate(), v)
	}

	cases := map[string]string{
		"3000.555":      "must have at most 2 decimal places",
		"0.001":         "must have at most 2 decimal places",
		"1000000000000": "must be less than 1000000000000",
		"5e20":          "must be less than 1000000000000",
	}
	for v, reason := range cases {
		var vErr *ValidationError
		require.ErrorAs(t, withPrice(v).Validate(), &vErr, v)
		require.Len(t, vErr.Fields, 1, v)
		assert.Equal(t, "price", vErr.Fields[0].Field, v)
		assert.Equal(t, reason, vErr.Fields[0].Reason, v)
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" active ")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, status)

	_, err = ParseStatus("sold")
	assert.Error(t, err)
}
