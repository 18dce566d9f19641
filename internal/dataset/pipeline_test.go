package dataset

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnrichedRowFields(t *testing.T) {
	dir := newFixture().write(t)

	table, centroids, err := Load(dir, slog.Default())
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	row := table.Rows[0]
	assert.Equal(t, "o1", row.OrderID)
	assert.Equal(t, "delivered", row.OrderStatus)
	assert.Equal(t, "SP", row.CustomerState)
	assert.Equal(t, "sao paulo", row.CustomerCity)
	assert.Equal(t, "r1", row.ReviewID)
	assert.Equal(t, 5, row.ReviewScore)
	assert.Equal(t, "credit_card", row.PaymentType)
	assert.Equal(t, 110.00, row.PaymentValue)
	assert.Equal(t, "p1", row.ProductID)
	assert.Equal(t, "moveis_decoracao", row.ProductCategory)
	assert.Equal(t, "furniture_decor", row.ProductCategoryEnglish)
	assert.Equal(t, "PR", row.SellerState)

	// Derived time features from 2017-05-10 14:30:00 (a Wednesday).
	assert.Equal(t, 2017, row.PurchaseYear)
	assert.Equal(t, "2017-05", row.PurchaseMonth)
	assert.Equal(t, 14, row.HourOfDay)
	assert.Equal(t, "Wednesday", row.DayOfWeek)

	// Delivered 2017-05-20 10:00 after purchase 2017-05-10 14:30 = 9 full
	// days (floored); estimate 2017-05-25 00:00 minus delivery = 4 full
	// days early.
	require.NotNil(t, row.DeliveryTime)
	assert.Equal(t, 9, *row.DeliveryTime)
	require.NotNil(t, row.DeliveryDelta)
	assert.Equal(t, 4, *row.DeliveryDelta)
	assert.Equal(t, DeliveryOnTimeEarly, row.DeliveryStatus)

	require.Len(t, centroids, 1)
	assert.Equal(t, "SP", centroids[0].State)
}

func TestLoad_MissingFileIsDataUnavailable(t *testing.T) {
	f := newFixture()
	delete(f.files, FileOrderReviews)
	dir := f.write(t)

	_, _, err := Load(dir, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoad_MissingRequiredColumnIsDataUnavailable(t *testing.T) {
	f := newFixture()
	f.files[FileOrderPayments] = []string{
		"order_id,payment_sequential,payment_installments", // no payment_type/value
		"o1,1,3",
	}
	dir := f.write(t)

	_, _, err := Load(dir, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoad_DropsRowsWithUnparseablePurchaseTimestamp(t *testing.T) {
	f := newFixture()
	// o2 shares every join partner with o1 but its purchase timestamp is
	// garbage.
	f.addRow(FileOrders, "o2,c1,delivered,not-a-date,,,2017-06-01 00:00:00,2017-06-05 00:00:00")
	f.addRow(FileOrderItems, "o2,1,p1,s1,2017-05-15 00:00:00,50.00,5.00")
	f.addRow(FileOrderPayments, "o2,1,boleto,1,55.00")
	f.addRow(FileOrderReviews, "r2,o2,3")
	dir := f.write(t)

	table, _, err := Load(dir, slog.Default())
	require.NoError(t, err)

	for _, row := range table.Rows {
		assert.NotEqual(t, "o2", row.OrderID)
		assert.False(t, row.PurchaseTimestamp.IsZero())
	}
	assert.Equal(t, 1, table.Len())
}

func TestLoad_UndeliveredOrderHasUndefinedStatus(t *testing.T) {
	f := newFixture()
	f.addRow(FileOrders, "o2,c1,shipped,2017-06-01 09:00:00,2017-06-01 10:00:00,2017-06-02 08:00:00,,2017-06-15 00:00:00")
	f.addRow(FileOrderItems, "o2,1,p1,s1,2017-06-05 00:00:00,50.00,5.00")
	f.addRow(FileOrderPayments, "o2,1,boleto,1,55.00")
	f.addRow(FileOrderReviews, "r2,o2,3")
	dir := f.write(t)

	table, _, err := Load(dir, slog.Default())
	require.NoError(t, err)

	var found bool
	for _, row := range table.Rows {
		if row.OrderID != "o2" {
			continue
		}
		found = true
		assert.Nil(t, row.DeliveryTime)
		assert.Nil(t, row.DeliveryDelta)
		assert.Equal(t, DeliveryUndefined, row.DeliveryStatus)
	}
	assert.True(t, found)
}

func TestLoad_InnerJoinDropsUnmatchedRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fixture)
	}{
		{
			name: "order without review",
			mutate: func(f *fixture) {
				f.files[FileOrderReviews] = f.files[FileOrderReviews][:1]
			},
		},
		{
			name: "order without payment",
			mutate: func(f *fixture) {
				f.files[FileOrderPayments] = f.files[FileOrderPayments][:1]
			},
		},
		{
			name: "order without items",
			mutate: func(f *fixture) {
				f.files[FileOrderItems] = f.files[FileOrderItems][:1]
			},
		},
		{
			name: "item with unknown product",
			mutate: func(f *fixture) {
				f.files[FileProducts] = f.files[FileProducts][:1]
			},
		},
		{
			name: "item with unknown seller",
			mutate: func(f *fixture) {
				f.files[FileSellers] = f.files[FileSellers][:1]
			},
		},
		{
			name: "category without translation",
			mutate: func(f *fixture) {
				f.files[FileCategoryTranslation] = f.files[FileCategoryTranslation][:1]
			},
		},
		{
			name: "order with unknown customer",
			mutate: func(f *fixture) {
				f.files[FileCustomers] = f.files[FileCustomers][:1]
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.mutate(f)
			dir := f.write(t)

			table, _, err := Load(dir, slog.Default())
			require.NoError(t, err)
			assert.Equal(t, 0, table.Len())
		})
	}
}

func TestLoad_FanOutMultipliesRows(t *testing.T) {
	f := newFixture()
	// Second item and second payment for o1: 1 review x 2 payments x 2
	// items = 4 enriched rows.
	f.addRow(FileOrderItems, "o1,2,p1,s1,2017-05-15 00:00:00,40.00,4.00")
	f.addRow(FileOrderPayments, "o1,2,voucher,1,20.00")
	dir := f.write(t)

	table, _, err := Load(dir, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	for _, row := range table.Rows {
		assert.Equal(t, "o1", row.OrderID)
	}
}

func TestLoad_CentroidIsArithmeticMean(t *testing.T) {
	f := newFixture()
	f.addRow(FileGeolocation, "01311,-23.7,-46.8,sao paulo,SP")
	f.addRow(FileGeolocation, "80010,-25.4,-49.3,curitiba,PR")
	dir := f.write(t)

	_, centroids, err := Load(dir, slog.Default())
	require.NoError(t, err)
	require.Len(t, centroids, 2)

	// Sorted by state: PR then SP.
	assert.Equal(t, "PR", centroids[0].State)
	assert.InDelta(t, -25.4, centroids[0].Lat, 1e-9)
	assert.InDelta(t, -49.3, centroids[0].Lng, 1e-9)

	assert.Equal(t, "SP", centroids[1].State)
	assert.InDelta(t, (-23.5+-23.7)/2, centroids[1].Lat, 1e-9)
	assert.InDelta(t, (-46.6+-46.8)/2, centroids[1].Lng, 1e-9)
}

func TestClassifyDelivery(t *testing.T) {
	pos, zero, neg := 3, 0, -2
	tests := []struct {
		name  string
		delta *int
		want  DeliveryStatus
	}{
		{"nil delta is undefined", nil, DeliveryUndefined},
		{"positive delta is on time", &pos, DeliveryOnTimeEarly},
		{"zero delta is on time", &zero, DeliveryOnTimeEarly},
		{"negative delta is late", &neg, DeliveryLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDelivery(tt.delta))
		})
	}
}

func TestFloorDays(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"exact days", 48 * time.Hour, 2},
		{"partial day floors down", 47 * time.Hour, 1},
		{"less than a day", 5 * time.Hour, 0},
		{"negative partial floors toward minus infinity", -1 * time.Hour, -1},
		{"negative exact", -24 * time.Hour, -1},
		{"negative below a day", -25 * time.Hour, -2},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, floorDays(tt.d))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts := parseTimestamp("2017-05-10 14:30:00")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2017, 5, 10, 14, 30, 0, 0, time.UTC), *ts)

	assert.Nil(t, parseTimestamp(""))
	assert.Nil(t, parseTimestamp("10/05/2017"))
}
