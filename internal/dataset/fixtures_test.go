package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixture is an in-memory CSV source directory for pipeline tests.
type fixture struct {
	files map[string][]string
}

// newFixture returns a minimal but fully joinable dataset: one customer,
// one order, one review, one payment, one item, plus the product, seller,
// translation and geolocation rows the joins need.
func newFixture() *fixture {
	return &fixture{files: map[string][]string{
		FileCustomers: {
			"customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state",
			"c1,u1,01310,sao paulo,SP",
		},
		FileGeolocation: {
			"geolocation_zip_code_prefix,geolocation_lat,geolocation_lng,geolocation_city,geolocation_state",
			"01310,-23.5,-46.6,sao paulo,SP",
		},
		FileOrders: {
			"order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date",
			"o1,c1,delivered,2017-05-10 14:30:00,2017-05-10 15:00:00,2017-05-12 08:00:00,2017-05-20 10:00:00,2017-05-25 00:00:00",
		},
		FileOrderItems: {
			"order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value",
			"o1,1,p1,s1,2017-05-15 00:00:00,100.00,10.00",
		},
		FileProducts: {
			"product_id,product_category_name",
			"p1,moveis_decoracao",
		},
		FileOrderPayments: {
			"order_id,payment_sequential,payment_type,payment_installments,payment_value",
			"o1,1,credit_card,3,110.00",
		},
		FileOrderReviews: {
			"review_id,order_id,review_score",
			"r1,o1,5",
		},
		FileSellers: {
			"seller_id,seller_zip_code_prefix,seller_city,seller_state",
			"s1,80010,curitiba,PR",
		},
		FileCategoryTranslation: {
			"product_category_name,product_category_name_english",
			"moveis_decoracao,furniture_decor",
		},
	}}
}

// addRow appends a data row to one of the source files.
func (f *fixture) addRow(file, row string) {
	f.files[file] = append(f.files[file], row)
}

// write materializes the fixture into a temp directory.
func (f *fixture) write(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, lines := range f.files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0644)
		require.NoError(t, err)
	}
	return dir
}
