package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"ecomdash/internal/analytics"
	"ecomdash/internal/dataset"
)

const (
	sheetSummary = "Summary"
	sheetOrders  = "Orders"

	exportTimestampFormat = "2006-01-02 15:04:05"
)

// orderHeaders is the column layout of the Orders sheet.
var orderHeaders = []string{
	"order_id", "order_status", "customer_state", "customer_city",
	"purchase_timestamp", "delivered_customer_date", "estimated_delivery_date",
	"review_score", "payment_type", "payment_installments", "payment_value",
	"product_category_english", "seller_state", "price", "freight_value",
	"delivery_time_days", "delivery_delta_days", "delivery_status",
}

// WriteOrdersWorkbook writes the filtered enriched rows plus their KPI
// summary as a two-sheet Excel workbook.
func WriteOrdersWorkbook(w io.Writer, rows []dataset.EnrichedRow, summary analytics.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	// Summary sheet first so it opens as the active sheet.
	index, err := f.NewSheet(sheetSummary)
	if err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	summaryRows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Revenue (R$)", summary.TotalRevenue},
		{"Total Unique Orders", summary.TotalOrders},
		{"Average Review Score", summary.AvgReviewScore},
		{"Exported Rows", len(rows)},
		{"Exported At", time.Now().UTC().Format(exportTimestampFormat)},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(sheetOrders); err != nil {
		return fmt.Errorf("failed to create orders sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetOrders)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(orderHeaders))
	for i, h := range orderHeaders {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, orderCells(row)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush stream writer: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func orderCells(row dataset.EnrichedRow) []interface{} {
	return []interface{}{
		row.OrderID,
		row.OrderStatus,
		row.CustomerState,
		row.CustomerCity,
		row.PurchaseTimestamp.Format(exportTimestampFormat),
		formatTimestamp(row.DeliveredCustomerDate),
		formatTimestamp(row.EstimatedDeliveryDate),
		row.ReviewScore,
		row.PaymentType,
		row.PaymentInstallments,
		row.PaymentValue,
		row.ProductCategoryEnglish,
		row.SellerState,
		row.Price,
		row.FreightValue,
		formatDays(row.DeliveryTime),
		formatDays(row.DeliveryDelta),
		string(row.DeliveryStatus),
	}
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimestampFormat)
}

func formatDays(d *int) interface{} {
	if d == nil {
		return ""
	}
	return *d
}
