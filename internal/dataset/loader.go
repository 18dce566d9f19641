package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrDataUnavailable indicates that one or more required source files are
// missing or unreadable. The dashboard must not render while this holds.
var ErrDataUnavailable = errors.New("dataset unavailable")

// Source file names, fixed by the published dataset.
const (
	FileCustomers           = "olist_customers_dataset.csv"
	FileGeolocation         = "olist_geolocation_dataset.csv"
	FileOrders              = "olist_orders_dataset.csv"
	FileOrderItems          = "olist_order_items_dataset.csv"
	FileProducts            = "olist_products_dataset.csv"
	FileOrderPayments       = "olist_order_payments_dataset.csv"
	FileOrderReviews        = "olist_order_reviews_dataset.csv"
	FileSellers             = "olist_sellers_dataset.csv"
	FileCategoryTranslation = "product_category_name_translation.csv"
)

// SourceFiles lists every required input file, in load order.
var SourceFiles = []string{
	FileCustomers,
	FileGeolocation,
	FileOrders,
	FileOrderItems,
	FileProducts,
	FileOrderPayments,
	FileOrderReviews,
	FileSellers,
	FileCategoryTranslation,
}

// rawTables holds all nine source tables after reading but before joining.
type rawTables struct {
	customers    []Customer
	geolocation  []GeolocationRow
	orders       []Order
	orderItems   []OrderItem
	products     []Product
	payments     []Payment
	reviews      []Review
	sellers      []Seller
	translations []CategoryTranslation
}

// columns resolves header names to positions once per file. Required columns
// that are absent fail the whole load; the pipeline never falls back to
// positional access.
type columns struct {
	file  string
	index map[string]int
}

func resolveColumns(file string, header []string, required []string) (*columns, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s: missing required column %q", ErrDataUnavailable, file, name)
		}
	}
	return &columns{file: file, index: idx}, nil
}

func (c *columns) str(record []string, name string) string {
	i := c.index[name]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (c *columns) float(record []string, name string) float64 {
	v, _ := strconv.ParseFloat(c.str(record, name), 64)
	return v
}

func (c *columns) int(record []string, name string) int {
	v, _ := strconv.Atoi(c.str(record, name))
	return v
}

// readCSV opens a source file and streams its records through fn. The header
// row is validated before any record is consumed.
func readCSV(dir, file string, required []string, fn func(c *columns, record []string) error) error {
	path := filepath.Join(dir, file)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDataUnavailable, file, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%w: %s: reading header: %v", ErrDataUnavailable, file, err)
	}
	cols, err := resolveColumns(file, header, required)
	if err != nil {
		return err
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDataUnavailable, file, err)
		}
		if err := fn(cols, record); err != nil {
			return err
		}
	}
	return nil
}

// readTables reads the nine raw source tables from dir. Any missing file,
// unreadable content, or absent required column aborts the load with
// ErrDataUnavailable.
func readTables(dir string, logger *slog.Logger) (*rawTables, error) {
	raw := &rawTables{}

	err := readCSV(dir, FileCustomers,
		[]string{"customer_id", "customer_state"},
		func(c *columns, rec []string) error {
			raw.customers = append(raw.customers, Customer{
				ID:        c.str(rec, "customer_id"),
				UniqueID:  c.str(rec, "customer_unique_id"),
				ZipPrefix: c.str(rec, "customer_zip_code_prefix"),
				City:      c.str(rec, "customer_city"),
				State:     c.str(rec, "customer_state"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileGeolocation,
		[]string{"geolocation_state", "geolocation_lat", "geolocation_lng"},
		func(c *columns, rec []string) error {
			raw.geolocation = append(raw.geolocation, GeolocationRow{
				ZipPrefix: c.str(rec, "geolocation_zip_code_prefix"),
				Lat:       c.float(rec, "geolocation_lat"),
				Lng:       c.float(rec, "geolocation_lng"),
				City:      c.str(rec, "geolocation_city"),
				State:     c.str(rec, "geolocation_state"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileOrders,
		[]string{"order_id", "customer_id", "order_purchase_timestamp",
			"order_approved_at", "order_delivered_carrier_date",
			"order_delivered_customer_date", "order_estimated_delivery_date"},
		func(c *columns, rec []string) error {
			raw.orders = append(raw.orders, Order{
				ID:                    c.str(rec, "order_id"),
				CustomerID:            c.str(rec, "customer_id"),
				Status:                c.str(rec, "order_status"),
				PurchaseTimestamp:     parseTimestamp(c.str(rec, "order_purchase_timestamp")),
				ApprovedAt:            parseTimestamp(c.str(rec, "order_approved_at")),
				DeliveredCarrierDate:  parseTimestamp(c.str(rec, "order_delivered_carrier_date")),
				DeliveredCustomerDate: parseTimestamp(c.str(rec, "order_delivered_customer_date")),
				EstimatedDeliveryDate: parseTimestamp(c.str(rec, "order_estimated_delivery_date")),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileOrderItems,
		[]string{"order_id", "product_id", "seller_id", "shipping_limit_date"},
		func(c *columns, rec []string) error {
			raw.orderItems = append(raw.orderItems, OrderItem{
				OrderID:           c.str(rec, "order_id"),
				ItemID:            c.int(rec, "order_item_id"),
				ProductID:         c.str(rec, "product_id"),
				SellerID:          c.str(rec, "seller_id"),
				ShippingLimitDate: parseTimestamp(c.str(rec, "shipping_limit_date")),
				Price:             c.float(rec, "price"),
				FreightValue:      c.float(rec, "freight_value"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileProducts,
		[]string{"product_id", "product_category_name"},
		func(c *columns, rec []string) error {
			raw.products = append(raw.products, Product{
				ID:           c.str(rec, "product_id"),
				CategoryName: c.str(rec, "product_category_name"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileOrderPayments,
		[]string{"order_id", "payment_type", "payment_value"},
		func(c *columns, rec []string) error {
			raw.payments = append(raw.payments, Payment{
				OrderID:      c.str(rec, "order_id"),
				Sequential:   c.int(rec, "payment_sequential"),
				Type:         c.str(rec, "payment_type"),
				Installments: c.int(rec, "payment_installments"),
				Value:        c.float(rec, "payment_value"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileOrderReviews,
		[]string{"order_id", "review_score"},
		func(c *columns, rec []string) error {
			raw.reviews = append(raw.reviews, Review{
				ID:      c.str(rec, "review_id"),
				OrderID: c.str(rec, "order_id"),
				Score:   c.int(rec, "review_score"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileSellers,
		[]string{"seller_id", "seller_state"},
		func(c *columns, rec []string) error {
			raw.sellers = append(raw.sellers, Seller{
				ID:        c.str(rec, "seller_id"),
				ZipPrefix: c.str(rec, "seller_zip_code_prefix"),
				City:      c.str(rec, "seller_city"),
				State:     c.str(rec, "seller_state"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = readCSV(dir, FileCategoryTranslation,
		[]string{"product_category_name", "product_category_name_english"},
		func(c *columns, rec []string) error {
			raw.translations = append(raw.translations, CategoryTranslation{
				Name:        c.str(rec, "product_category_name"),
				NameEnglish: c.str(rec, "product_category_name_english"),
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	logger.Debug("raw tables read",
		slog.Int("customers", len(raw.customers)),
		slog.Int("geolocation", len(raw.geolocation)),
		slog.Int("orders", len(raw.orders)),
		slog.Int("order_items", len(raw.orderItems)),
		slog.Int("products", len(raw.products)),
		slog.Int("payments", len(raw.payments)),
		slog.Int("reviews", len(raw.reviews)),
		slog.Int("sellers", len(raw.sellers)),
		slog.Int("translations", len(raw.translations)))

	return raw, nil
}
