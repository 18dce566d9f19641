package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecomdash/internal/analytics"
	"ecomdash/internal/dataset"
)

func sampleRows() []dataset.EnrichedRow {
	purchase := time.Date(2017, 5, 10, 14, 30, 0, 0, time.UTC)
	delivered := time.Date(2017, 5, 20, 10, 0, 0, 0, time.UTC)
	estimated := time.Date(2017, 5, 25, 0, 0, 0, 0, time.UTC)
	dt, dd := 9, 4

	return []dataset.EnrichedRow{
		{
			OrderID:                "o1",
			OrderStatus:            "delivered",
			CustomerState:          "SP",
			CustomerCity:           "sao paulo",
			PurchaseTimestamp:      purchase,
			DeliveredCustomerDate:  &delivered,
			EstimatedDeliveryDate:  &estimated,
			ReviewScore:            5,
			PaymentType:            "credit_card",
			PaymentInstallments:    3,
			PaymentValue:           110,
			ProductCategoryEnglish: "furniture_decor",
			SellerState:            "PR",
			Price:                  100,
			FreightValue:           10,
			DeliveryTime:           &dt,
			DeliveryDelta:          &dd,
			DeliveryStatus:         dataset.DeliveryOnTimeEarly,
		},
		{
			OrderID:           "o2",
			OrderStatus:       "shipped",
			CustomerState:     "RJ",
			PurchaseTimestamp: time.Date(2018, 1, 3, 9, 0, 0, 0, time.UTC),
			ReviewScore:       3,
			PaymentType:       "boleto",
			PaymentValue:      55,
			DeliveryStatus:    dataset.DeliveryUndefined,
		},
	}
}

func TestWriteOrdersWorkbook(t *testing.T) {
	summary := analytics.Summary{TotalRevenue: 165, TotalOrders: 2, AvgReviewScore: 4}

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersWorkbook(&buf, sampleRows(), summary))

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	assert.ElementsMatch(t, []string{sheetSummary, sheetOrders}, wb.GetSheetList())

	summaryRows, err := wb.GetRows(sheetSummary)
	require.NoError(t, err)
	require.NotEmpty(t, summaryRows)
	assert.Equal(t, []string{"Metric", "Value"}, summaryRows[0][:2])
	assert.Equal(t, "Total Revenue (R$)", summaryRows[1][0])
	assert.Equal(t, "165", summaryRows[1][1])

	orders, err := wb.GetRows(sheetOrders)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, orderHeaders, orders[0])

	first := orders[1]
	assert.Equal(t, "o1", first[0])
	assert.Equal(t, "2017-05-10 14:30:00", first[4])
	assert.Equal(t, "2017-05-20 10:00:00", first[5])
	assert.Equal(t, "9", first[15])
	assert.Equal(t, "4", first[16])
	assert.Equal(t, string(dataset.DeliveryOnTimeEarly), first[17])

	// Undelivered order: empty delivery cells, Undefined status.
	second := orders[2]
	assert.Equal(t, "o2", second[0])
	if len(second) > 5 {
		assert.Empty(t, second[5])
	}
	assert.Equal(t, string(dataset.DeliveryUndefined), second[17])
}

func TestWriteOrdersWorkbook_EmptyRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersWorkbook(&buf, nil, analytics.Summary{}))

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	orders, err := wb.GetRows(sheetOrders)
	require.NoError(t, err)
	require.Len(t, orders, 1) // header only
}
