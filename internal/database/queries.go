package database

// Order queries.
const (
	InsertOrderSQL = `
		INSERT INTO orders (
			order_number, customer_id, restaurant_id,
			customer_details, restaurant_details, items,
			subtotal, tax_rate, tax_amount, delivery_fee, total_amount,
			is_delivery, delivery_address, status, customer_note
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, version, created_at, updated_at`

	selectOrderColumns = `
		id, order_number, customer_id, restaurant_id,
		customer_details, restaurant_details, items,
		subtotal, tax_rate, tax_amount, delivery_fee, total_amount,
		is_delivery, delivery_address, status, customer_note, restaurant_note,
		version, created_at, updated_at`

	GetOrderByNumberSQL = `
		SELECT ` + selectOrderColumns + `
		FROM orders WHERE order_number = $1`

	GetOrderForCustomerSQL = `
		SELECT ` + selectOrderColumns + `
		FROM orders WHERE order_number = $1 AND customer_id = $2`

	GetOrderForRestaurantSQL = `
		SELECT ` + selectOrderColumns + `
		FROM orders WHERE order_number = $1 AND restaurant_id = $2`

	ListOrdersByCustomerSQL = `
		SELECT ` + selectOrderColumns + `
		FROM orders
		WHERE customer_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`

	ListOrdersByRestaurantSQL = `
		SELECT ` + selectOrderColumns + `
		FROM orders
		WHERE restaurant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`

	OrderNumberExistsSQL = `
		SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`

	// Compare-and-swap on version so two concurrent status writers cannot
	// silently overwrite each other.
	UpdateOrderStatusSQL = `
		UPDATE orders
		SET status = $1,
			restaurant_note = COALESCE($2, restaurant_note),
			version = version + 1,
			updated_at = NOW()
		WHERE order_number = $3 AND version = $4`

	// Promotion applied by the ingestion consumer; matching on status 'new'
	// makes redelivery of the same created event a no-op.
	ActivateOrderSQL = `
		UPDATE orders
		SET status = 'received', version = version + 1, updated_at = NOW()
		WHERE order_number = $1 AND status = 'new'`
)

// Directory queries (narrow reads into the CRUD-owned tables).
const (
	GetCustomerSQL = `
		SELECT first_name, last_name, email, phone, addresses
		FROM customers WHERE id = $1`

	GetRestaurantSQL = `
		SELECT name, phone, email, image, address
		FROM restaurants WHERE id = $1`

	GetDishesByIDsSQL = `
		SELECT id, restaurant_id, name, available, sizes, category, ingredients, image
		FROM dishes WHERE id = ANY($1)`
)
