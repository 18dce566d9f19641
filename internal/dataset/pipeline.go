package dataset

import (
	"log/slog"
	"sort"
	"time"
)

// timestampLayout matches the wire format of every timestamp column in the
// source tables.
const timestampLayout = "2006-01-02 15:04:05"

// parseTimestamp parses a source timestamp. Empty or unparseable values
// yield nil; that is never fatal, the derived features downstream treat nil
// as unknown.
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// floorDays converts a duration to whole days, flooring toward negative
// infinity so that a delivery 1 hour late counts as -1 days, not 0.
func floorDays(d time.Duration) int {
	const day = 24 * time.Hour
	n := d / day
	if d%day != 0 && d < 0 {
		n--
	}
	return int(n)
}

// Load reads the nine source tables from dir, joins them into the enriched
// order table, derives the time and delivery-performance features, and
// aggregates the state geolocation centroids. It is side-effect free and
// idempotent; callers memoize the result through Store.
func Load(dir string, logger *slog.Logger) (*EnrichedTable, []StateCentroid, error) {
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	raw, err := readTables(dir, logger)
	if err != nil {
		return nil, nil, err
	}

	table := join(raw)
	centroids := aggregateCentroids(raw.geolocation)

	logger.Info("dataset pipeline complete",
		slog.Int("enriched_rows", table.Len()),
		slog.Int("state_centroids", len(centroids)),
		slog.Duration("elapsed", time.Since(start)))

	return table, centroids, nil
}

// join performs the inner-join chain orders -> customers -> reviews ->
// payments -> items -> products -> sellers -> category translation and
// computes the derived columns. Rows missing a join partner on either side
// are dropped rather than carried with null-filled fields, so every
// surviving row has a full set of attributes. One-to-many joins fan out:
// an order with r reviews, p payments and i items yields r*p*i rows.
func join(raw *rawTables) *EnrichedTable {
	customersByID := make(map[string]Customer, len(raw.customers))
	for _, c := range raw.customers {
		customersByID[c.ID] = c
	}
	productsByID := make(map[string]Product, len(raw.products))
	for _, p := range raw.products {
		productsByID[p.ID] = p
	}
	sellersByID := make(map[string]Seller, len(raw.sellers))
	for _, s := range raw.sellers {
		sellersByID[s.ID] = s
	}
	englishByCategory := make(map[string]string, len(raw.translations))
	for _, t := range raw.translations {
		englishByCategory[t.Name] = t.NameEnglish
	}
	reviewsByOrder := make(map[string][]Review, len(raw.reviews))
	for _, r := range raw.reviews {
		reviewsByOrder[r.OrderID] = append(reviewsByOrder[r.OrderID], r)
	}
	paymentsByOrder := make(map[string][]Payment, len(raw.payments))
	for _, p := range raw.payments {
		paymentsByOrder[p.OrderID] = append(paymentsByOrder[p.OrderID], p)
	}
	itemsByOrder := make(map[string][]OrderItem, len(raw.orderItems))
	for _, it := range raw.orderItems {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}

	table := &EnrichedTable{}
	for _, order := range raw.orders {
		// Orders with a missing or unparseable purchase timestamp are
		// excluded entirely, not imputed.
		if order.PurchaseTimestamp == nil {
			continue
		}
		customer, ok := customersByID[order.CustomerID]
		if !ok {
			continue
		}
		reviews := reviewsByOrder[order.ID]
		payments := paymentsByOrder[order.ID]
		items := itemsByOrder[order.ID]
		if len(reviews) == 0 || len(payments) == 0 || len(items) == 0 {
			continue
		}

		for _, review := range reviews {
			for _, payment := range payments {
				for _, item := range items {
					product, ok := productsByID[item.ProductID]
					if !ok {
						continue
					}
					seller, ok := sellersByID[item.SellerID]
					if !ok {
						continue
					}
					english, ok := englishByCategory[product.CategoryName]
					if !ok {
						continue
					}
					table.Rows = append(table.Rows,
						enrich(order, customer, review, payment, item, product, seller, english))
				}
			}
		}
	}
	return table
}

// enrich builds one output row and its derived columns.
func enrich(order Order, customer Customer, review Review, payment Payment,
	item OrderItem, product Product, seller Seller, english string) EnrichedRow {

	purchase := *order.PurchaseTimestamp

	row := EnrichedRow{
		OrderID:     order.ID,
		OrderStatus: order.Status,

		CustomerID:    customer.ID,
		CustomerCity:  customer.City,
		CustomerState: customer.State,

		PurchaseTimestamp:     purchase,
		ApprovedAt:            order.ApprovedAt,
		DeliveredCarrierDate:  order.DeliveredCarrierDate,
		DeliveredCustomerDate: order.DeliveredCustomerDate,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		ShippingLimitDate:     item.ShippingLimitDate,

		ReviewID:    review.ID,
		ReviewScore: review.Score,

		PaymentSequential:   payment.Sequential,
		PaymentType:         payment.Type,
		PaymentInstallments: payment.Installments,
		PaymentValue:        payment.Value,

		OrderItemID:  item.ItemID,
		ProductID:    item.ProductID,
		SellerID:     item.SellerID,
		Price:        item.Price,
		FreightValue: item.FreightValue,

		ProductCategory:        product.CategoryName,
		ProductCategoryEnglish: english,

		SellerCity:  seller.City,
		SellerState: seller.State,

		PurchaseYear:  purchase.Year(),
		PurchaseMonth: purchase.Format("2006-01"),
		HourOfDay:     purchase.Hour(),
		DayOfWeek:     purchase.Weekday().String(),
	}

	if order.DeliveredCustomerDate != nil {
		dt := floorDays(order.DeliveredCustomerDate.Sub(purchase))
		row.DeliveryTime = &dt
	}
	if order.DeliveredCustomerDate != nil && order.EstimatedDeliveryDate != nil {
		delta := floorDays(order.EstimatedDeliveryDate.Sub(*order.DeliveredCustomerDate))
		row.DeliveryDelta = &delta
	}
	row.DeliveryStatus = classifyDelivery(row.DeliveryDelta)

	return row
}

// classifyDelivery maps a delivery delta to its status. Undefined holds
// exactly when the delta is unknown.
func classifyDelivery(delta *int) DeliveryStatus {
	switch {
	case delta == nil:
		return DeliveryUndefined
	case *delta >= 0:
		return DeliveryOnTimeEarly
	default:
		return DeliveryLate
	}
}

// aggregateCentroids reduces the geolocation table to one arithmetic-mean
// coordinate per state, sorted by state for deterministic output.
func aggregateCentroids(rows []GeolocationRow) []StateCentroid {
	type acc struct {
		lat, lng float64
		n        int
	}
	byState := make(map[string]*acc)
	for _, r := range rows {
		a, ok := byState[r.State]
		if !ok {
			a = &acc{}
			byState[r.State] = a
		}
		a.lat += r.Lat
		a.lng += r.Lng
		a.n++
	}

	centroids := make([]StateCentroid, 0, len(byState))
	for state, a := range byState {
		centroids = append(centroids, StateCentroid{
			State: state,
			Lat:   a.lat / float64(a.n),
			Lng:   a.lng / float64(a.n),
		})
	}
	sort.Slice(centroids, func(i, j int) bool { return centroids[i].State < centroids[j].State })
	return centroids
}
