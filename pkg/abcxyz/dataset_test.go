package abcxyz_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

func mustMonth(s string) time.Time {
	t, err := abcxyz.ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-03", "2025-03", false},
		{"2025-03-17", "2025-03", false},
		{" 2025-11 ", "2025-11", false},
		{"2025/07", "2025-07", false},
		{"2025-13", "", true},
		{"march", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := abcxyz.ParseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, abcxyz.FormatMonth(got))
		})
	}
}

func TestMonthRange(t *testing.T) {
	got := abcxyz.MonthRange(mustMonth("2024-11"), mustMonth("2025-02"))
	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02"}, got)

	assert.Nil(t, abcxyz.MonthRange(mustMonth("2025-02"), mustMonth("2024-11")))
}

func TestTrailingMonths(t *testing.T) {
	got := abcxyz.TrailingMonths(mustMonth("2025-03-31"), 12)

	require.Len(t, got, 12)
	assert.Equal(t, "2024-04", got[0])
	assert.Equal(t, "2025-03", got[11])
	assert.Nil(t, abcxyz.TrailingMonths(mustMonth("2025-03"), 0))
}

func TestBuilderAlignsAndSums(t *testing.T) {
	b := abcxyz.NewBuilder()

	b.Add(abcxyz.Observation{Row: 2, ProductID: 1, Name: "Cafe", Brand: "Andino", Period: "2025-01", Quantity: 2, Revenue: 20})
	b.Add(abcxyz.Observation{Row: 3, ProductID: 1, Name: "Cafe", Period: "2025-01-15", Quantity: 1, Revenue: 10})
	b.Add(abcxyz.Observation{Row: 4, ProductID: 1, Name: "Cafe", Period: "2025-03", Quantity: 4, Revenue: 40})
	b.Add(abcxyz.Observation{Row: 5, Name: "Te verde", Period: "2025-02", Quantity: 5})
	b.Add(abcxyz.Observation{Row: 6, Name: "te  VERDE", Period: "2025-03", Quantity: 1})

	ds, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, abcxyz.ValidateDataset(ds))

	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03"}, ds.Months)
	require.Len(t, ds.Series, 2)

	cafe := ds.Series[0]
	assert.Equal(t, "Andino", cafe.Brand)
	assert.Equal(t, []float64{3, 0, 4}, cafe.Values(abcxyz.BasisQuantity))
	assert.Equal(t, []float64{30, 0, 40}, cafe.Values(abcxyz.BasisRevenue))

	tea := ds.Series[1]
	assert.Equal(t, "Te verde", tea.Name)
	assert.Equal(t, []float64{0, 5, 1}, tea.Values(abcxyz.BasisQuantity))
	assert.Empty(t, ds.Issues)
}

func TestBuilderRejectsMalformedRows(t *testing.T) {
	b := abcxyz.NewBuilder()

	tests := []struct {
		obs   abcxyz.Observation
		field string
	}{
		{abcxyz.Observation{Row: 2, Period: "2025-01", Quantity: 1}, "producto"},
		{abcxyz.Observation{Row: 3, Name: "x", Period: "enero", Quantity: 1}, "periodo"},
		{abcxyz.Observation{Row: 4, Name: "x", Period: "2025-01", Quantity: -1}, "cantidad"},
		{abcxyz.Observation{Row: 5, Name: "x", Period: "2025-01", Revenue: math.NaN()}, "ingreso"},
	}

	for _, tt := range tests {
		assert.False(t, b.Add(tt.obs))
	}

	issues := b.Issues()
	require.Len(t, issues, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.obs.Row, issues[i].Row)
		assert.Equal(t, tt.field, issues[i].Field)
	}

	ds, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, ds.Series)
	assert.Empty(t, ds.Months)
	assert.Len(t, ds.Issues, len(tests))
}

func TestBuilderFixedWindow(t *testing.T) {
	window := abcxyz.TrailingMonths(mustMonth("2025-06"), 3)
	b := abcxyz.NewBuilder(abcxyz.WithMonths(window))

	assert.True(t, b.Add(abcxyz.Observation{ProductID: 7, Period: "2025-05", Quantity: 3}))
	assert.False(t, b.Add(abcxyz.Observation{ProductID: 7, Period: "2025-01", Quantity: 3}))

	ds, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, window, ds.Months)
	require.Len(t, ds.Series, 1)
	assert.Equal(t, "#7", ds.Series[0].Name)
	assert.Equal(t, []float64{0, 3, 0}, ds.Series[0].Values(abcxyz.BasisQuantity))
}

func TestBuilderMaxMonths(t *testing.T) {
	b := abcxyz.NewBuilder(abcxyz.WithMaxMonths(6))
	b.Add(abcxyz.Observation{Name: "a", Period: "2020-01", Quantity: 1})
	b.Add(abcxyz.Observation{Name: "a", Period: "2025-01", Quantity: 1})

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, abcxyz.ErrInvalidData))
}

func TestValidateDataset(t *testing.T) {
	months := []string{"2025-01", "2025-02"}
	ok := abcxyz.ProductSeries{ProductID: 1, Name: "a", Periods: []abcxyz.Period{{Label: "2025-01"}, {Label: "2025-02"}}}

	tests := []struct {
		name    string
		ds      *abcxyz.Dataset
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &abcxyz.Dataset{}, false},
		{"aligned", &abcxyz.Dataset{Months: months, Series: []abcxyz.ProductSeries{ok}}, false},
		{"no periods", &abcxyz.Dataset{Series: []abcxyz.ProductSeries{ok}}, true},
		{"duplicate", &abcxyz.Dataset{Months: months, Series: []abcxyz.ProductSeries{ok, ok}}, true},
		{"short", &abcxyz.Dataset{Months: months, Series: []abcxyz.ProductSeries{
			{ProductID: 2, Periods: []abcxyz.Period{{Label: "2025-01"}}},
		}}, true},
		{"misaligned", &abcxyz.Dataset{Months: months, Series: []abcxyz.ProductSeries{
			{ProductID: 2, Periods: []abcxyz.Period{{Label: "2025-02"}, {Label: "2025-01"}}},
		}}, true},
		{"negative", &abcxyz.Dataset{Months: months, Series: []abcxyz.ProductSeries{
			{ProductID: 2, Periods: []abcxyz.Period{{Label: "2025-01", Quantity: -1}, {Label: "2025-02"}}},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := abcxyz.ValidateDataset(tt.ds)
			if tt.wantErr {
				assert.True(t, errors.Is(err, abcxyz.ErrInvalidData), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
