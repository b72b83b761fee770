// Package directory is the boundary to the account and menu CRUD halves of
// the system. The order pipeline only ever performs these narrow reads.
package directory

import (
	"context"
	"errors"

	"github.com/plateful/plateful/internal/models"
	"github.com/plateful/plateful/internal/pricing"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
)

// SavedAddress is one of a customer's stored addresses.
type SavedAddress struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	models.Address
}

// Customer is a customer profile read.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Addresses []SavedAddress
}

// AddressByID finds one of the customer's saved addresses.
func (c *Customer) AddressByID(id string) (*SavedAddress, bool) {
	for i := range c.Addresses {
		if c.Addresses[i].ID == id {
			return &c.Addresses[i], true
		}
	}
	return nil, false
}

// Restaurant is a restaurant profile read.
type Restaurant struct {
	Name    string
	Phone   string
	Email   string
	Image   string
	Address models.Address
}

// CustomerDirectory looks up customer profiles.
type CustomerDirectory interface {
	Customer(ctx context.Context, id string) (*Customer, error)
}

// RestaurantDirectory looks up restaurant profiles.
type RestaurantDirectory interface {
	Restaurant(ctx context.Context, id string) (*Restaurant, error)
}

// DishCatalog resolves the dishes referenced by a cart.
type DishCatalog interface {
	DishesByIDs(ctx context.Context, ids []string) ([]pricing.Dish, error)
}
