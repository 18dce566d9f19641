package dataset

import "time"

// DeliveryStatus classifies an order by its delivery promise outcome.
type DeliveryStatus string

const (
	DeliveryOnTimeEarly DeliveryStatus = "On Time / Early"
	DeliveryLate        DeliveryStatus = "Late"
	DeliveryUndefined   DeliveryStatus = "Undefined"
)

// Customer is one row of the customers source table.
type Customer struct {
	ID        string
	UniqueID  string
	ZipPrefix string
	City      string
	State     string
}

// GeolocationRow is one row of the geolocation source table. The table
// carries many rows per state; it is only ever consumed aggregated.
type GeolocationRow struct {
	ZipPrefix string
	Lat       float64
	Lng       float64
	City      string
	State     string
}

// Order is one row of the orders source table. All timestamps except the
// raw string columns are parsed later by the pipeline; unparseable values
// become nil.
type Order struct {
	ID                    string
	CustomerID            string
	Status                string
	PurchaseTimestamp     *time.Time
	ApprovedAt            *time.Time
	DeliveredCarrierDate  *time.Time
	DeliveredCustomerDate *time.Time
	EstimatedDeliveryDate *time.Time
}

// OrderItem is one row of the order items source table.
type OrderItem struct {
	OrderID           string
	ItemID            int
	ProductID         string
	SellerID          string
	ShippingLimitDate *time.Time
	Price             float64
	FreightValue      float64
}

// Product is one row of the products source table.
type Product struct {
	ID           string
	CategoryName string
}

// Payment is one row of the order payments source table.
type Payment struct {
	OrderID      string
	Sequential   int
	Type         string
	Installments int
	Value        float64
}

// Review is one row of the order reviews source table.
type Review struct {
	ID      string
	OrderID string
	Score   int
}

// Seller is one row of the sellers source table.
type Seller struct {
	ID        string
	ZipPrefix string
	City      string
	State     string
}

// CategoryTranslation maps a Portuguese category name to its English name.
type CategoryTranslation struct {
	Name        string
	NameEnglish string
}

// EnrichedRow is the fully joined, feature-augmented order record. One row
// exists per order x review x payment x item combination that survived every
// inner join, so an order with multiple items or payments fans out into
// multiple rows.
type EnrichedRow struct {
	OrderID     string
	OrderStatus string

	CustomerID    string
	CustomerCity  string
	CustomerState string

	PurchaseTimestamp     time.Time
	ApprovedAt            *time.Time
	DeliveredCarrierDate  *time.Time
	DeliveredCustomerDate *time.Time
	EstimatedDeliveryDate *time.Time
	ShippingLimitDate     *time.Time

	ReviewID    string
	ReviewScore int

	PaymentSequential   int
	PaymentType         string
	PaymentInstallments int
	PaymentValue        float64

	OrderItemID  int
	ProductID    string
	SellerID     string
	Price        float64
	FreightValue float64

	ProductCategory        string
	ProductCategoryEnglish string

	SellerCity  string
	SellerState string

	// Derived columns. DeliveryTime and DeliveryDelta are nil when the
	// order has not been delivered (or the date failed to parse).
	DeliveryTime   *int
	DeliveryDelta  *int
	PurchaseYear   int
	PurchaseMonth  string
	HourOfDay      int
	DayOfWeek      string
	DeliveryStatus DeliveryStatus
}

// StateCentroid is the mean geographic position of all geolocation rows
// sharing a state.
type StateCentroid struct {
	State string
	Lat   float64
	Lng   float64
}

// EnrichedTable holds the pipeline output. It is immutable after Load
// returns: every consumer gets a read-only view.
type EnrichedTable struct {
	Rows []EnrichedRow
}

// Len returns the number of enriched rows.
func (t *EnrichedTable) Len() int { return len(t.Rows) }

// PurchaseDateBounds returns the earliest and latest purchase dates in the
// table, truncated to the date part. ok is false for an empty table.
func (t *EnrichedTable) PurchaseDateBounds() (min, max time.Time, ok bool) {
	if len(t.Rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = dateOnly(t.Rows[0].PurchaseTimestamp), dateOnly(t.Rows[0].PurchaseTimestamp)
	for _, r := range t.Rows[1:] {
		d := dateOnly(r.PurchaseTimestamp)
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, true
}

// dateOnly strips the time-of-day component, keeping the location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateOnly exposes the date-part truncation used across the package.
func DateOnly(t time.Time) time.Time { return dateOnly(t) }
