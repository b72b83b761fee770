package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/plateful/plateful/internal/database"
	"github.com/plateful/plateful/internal/pricing"
)

// PostgresDirectory reads profiles and dishes from the shared database.
// It satisfies CustomerDirectory, RestaurantDirectory and DishCatalog.
type PostgresDirectory struct {
	db *database.DB
}

func NewPostgresDirectory(db *database.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Customer(ctx context.Context, id string) (*Customer, error) {
	var (
		c             Customer
		addressesJSON []byte
	)
	err := d.db.QueryRow(ctx, database.GetCustomerSQL, id).
		Scan(&c.FirstName, &c.LastName, &c.Email, &c.Phone, &addressesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if err := json.Unmarshal(addressesJSON, &c.Addresses); err != nil {
		return nil, fmt.Errorf("decode customer addresses: %w", err)
	}
	return &c, nil
}

func (d *PostgresDirectory) Restaurant(ctx context.Context, id string) (*Restaurant, error) {
	var (
		r           Restaurant
		addressJSON []byte
	)
	err := d.db.QueryRow(ctx, database.GetRestaurantSQL, id).
		Scan(&r.Name, &r.Phone, &r.Email, &r.Image, &addressJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRestaurantNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &r.Address); err != nil {
		return nil, fmt.Errorf("decode restaurant address: %w", err)
	}
	return &r, nil
}

// dishSize mirrors the JSONB layout of one configured size.
type dishSize struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

func (d *PostgresDirectory) DishesByIDs(ctx context.Context, ids []string) ([]pricing.Dish, error) {
	rows, err := d.db.Query(ctx, database.GetDishesByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("get dishes: %w", err)
	}
	defer rows.Close()

	var dishes []pricing.Dish
	for rows.Next() {
		var (
			dish            pricing.Dish
			sizesJSON       []byte
			ingredientsJSON []byte
		)
		err := rows.Scan(&dish.ID, &dish.RestaurantID, &dish.Name, &dish.Available,
			&sizesJSON, &dish.Category, &ingredientsJSON, &dish.Image)
		if err != nil {
			return nil, fmt.Errorf("scan dish: %w", err)
		}

		var sizes []dishSize
		if err := json.Unmarshal(sizesJSON, &sizes); err != nil {
			return nil, fmt.Errorf("decode dish sizes: %w", err)
		}
		for _, s := range sizes {
			dish.Sizes = append(dish.Sizes, pricing.Size{ID: s.ID, Label: s.Label, Price: s.Price})
		}
		if err := json.Unmarshal(ingredientsJSON, &dish.Ingredients); err != nil {
			return nil, fmt.Errorf("decode dish ingredients: %w", err)
		}

		dishes = append(dishes, dish)
	}
	return dishes, rows.Err()
}
