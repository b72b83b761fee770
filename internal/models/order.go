package models

import "time"

// Address is a structural copy of a postal address. When attached to an
// order it is a snapshot taken at creation time, never updated afterwards.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

// CustomerDetails is the denormalized customer snapshot stored on an order.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// RestaurantDetails is the denormalized restaurant snapshot stored on an order.
type RestaurantDetails struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Image   string  `json:"image,omitempty"`
	Address Address `json:"address"`
}

// OrderItem is one priced line of an order. All fields are snapshots of the
// dish at order time so later menu edits never alter historical orders.
type OrderItem struct {
	DishID      string   `json:"dish_id"`
	Name        string   `json:"name"`
	Size        string   `json:"size"`
	UnitPrice   float64  `json:"unit_price"`
	Quantity    int      `json:"quantity"`
	TotalPrice  float64  `json:"total_price"`
	Category    string   `json:"category,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// Order is the aggregate root persisted in the order store. Everything is
// immutable after creation except Status, RestaurantNote and the lifecycle
// timestamps. Orders are never deleted.
type Order struct {
	ID                int64             `json:"-"`
	OrderNumber       string            `json:"order_number"`
	CustomerID        string            `json:"customer_id"`
	RestaurantID      string            `json:"restaurant_id"`
	CustomerDetails   CustomerDetails   `json:"customer_details"`
	RestaurantDetails RestaurantDetails `json:"restaurant_details"`
	Items             []OrderItem       `json:"items"`
	Subtotal          float64           `json:"subtotal"`
	TaxRate           float64           `json:"tax_rate"`
	TaxAmount         float64           `json:"tax_amount"`
	// DeliveryFee is nil for pickup orders. Zero means a delivery order
	// whose fee was waived, which is a different thing.
	DeliveryFee     *float64    `json:"delivery_fee,omitempty"`
	TotalAmount     float64     `json:"total_amount"`
	IsDelivery      bool        `json:"is_delivery"`
	DeliveryAddress *Address    `json:"delivery_address,omitempty"`
	Status          OrderStatus `json:"status"`
	CustomerNote    string      `json:"customer_note,omitempty"`
	RestaurantNote  string      `json:"restaurant_note,omitempty"`
	Version         int         `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
