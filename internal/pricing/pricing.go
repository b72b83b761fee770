// Package pricing turns a cart and a resolved dish catalog into a priced
// quote. It performs no I/O; callers resolve dishes and the tax state first.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plateful/plateful/internal/models"
)

// Delivery fee policy: a flat fee is charged unless the subtotal reaches
// the free-delivery threshold.
var (
	FlatDeliveryFee       = decimal.NewFromFloat(3.99)
	FreeDeliveryThreshold = decimal.NewFromInt(20)
)

// CartLine is one raw cart entry before validation.
type CartLine struct {
	DishID   string `json:"dish_id"`
	SizeID   string `json:"size_id"`
	Quantity int    `json:"quantity"`
}

// Size is one configured portion of a dish.
type Size struct {
	ID    string
	Label string
	Price decimal.Decimal
}

// Dish is a catalog record resolved for pricing.
type Dish struct {
	ID           string
	RestaurantID string
	Name         string
	Available    bool
	Sizes        []Size
	Category     string
	Ingredients  []string
	Image        string
}

// Quote is the priced result. Each monetary component is rounded to two
// decimals independently before Total sums them; the rounding order is part
// of the contract.
type Quote struct {
	Items       []models.OrderItem
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	DeliveryFee *decimal.Decimal
	Total       decimal.Decimal
}

// Price validates the cart against the catalog and computes the quote.
// Zero-quantity lines are dropped silently; any other violation fails the
// whole order, no partial orders are priced.
func Price(cart []CartLine, dishes []Dish, restaurantID string, isDelivery bool, taxState string) (*Quote, error) {
	byID := make(map[string]Dish, len(dishes))
	for _, d := range dishes {
		byID[d.ID] = d
	}

	var items []models.OrderItem
	subtotal := decimal.Zero

	for _, line := range cart {
		if line.Quantity == 0 {
			continue
		}
		if line.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must be a positive whole number for dish %s", models.ErrInvalidCart, line.DishID)
		}

		dish, ok := byID[line.DishID]
		if !ok {
			return nil, fmt.Errorf("%w: dish %s does not exist", models.ErrInvalidCart, line.DishID)
		}
		if dish.RestaurantID != restaurantID {
			return nil, fmt.Errorf("%w: dish %s does not belong to restaurant %s", models.ErrInvalidCart, line.DishID, restaurantID)
		}
		if !dish.Available {
			return nil, fmt.Errorf("%w: dish %s is not available", models.ErrInvalidCart, line.DishID)
		}

		size, ok := findSize(dish, line.SizeID)
		if !ok {
			return nil, fmt.Errorf("%w: size %s is not configured for dish %s", models.ErrInvalidCart, line.SizeID, line.DishID)
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		lineTotal := size.Price.Mul(qty)
		subtotal = subtotal.Add(lineTotal)

		items = append(items, models.OrderItem{
			DishID:      dish.ID,
			Name:        dish.Name,
			Size:        size.Label,
			UnitPrice:   size.Price.InexactFloat64(),
			Quantity:    line.Quantity,
			TotalPrice:  lineTotal.InexactFloat64(),
			Category:    dish.Category,
			Ingredients: dish.Ingredients,
			Image:       dish.Image,
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart has no order lines", models.ErrInvalidCart)
	}

	rate := TaxRateFor(taxState)
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)

	total := subtotal.Add(tax)

	quote := &Quote{
		Items:     items,
		Subtotal:  subtotal,
		TaxRate:   rate,
		TaxAmount: tax,
		Total:     total,
	}

	if isDelivery {
		fee := FlatDeliveryFee
		if subtotal.GreaterThanOrEqual(FreeDeliveryThreshold) {
			fee = decimal.Zero
		}
		fee = fee.Round(2)
		quote.DeliveryFee = &fee
		quote.Total = total.Add(fee)
	}

	return quote, nil
}

func findSize(dish Dish, sizeID string) (Size, bool) {
	for _, s := range dish.Sizes {
		if s.ID == sizeID {
			return s, true
		}
	}
	return Size{}, false
}
