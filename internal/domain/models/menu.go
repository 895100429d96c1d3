package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MenuItem is an orderable dish or drink.
type MenuItem struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	Category  string    `bson:"category" json:"category"`
	Available bool      `bson:"available" json:"available"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MenuItemPatch carries the management edits allowed on a menu item.
type MenuItemPatch struct {
	Name      *string  `json:"name"`
	Price     *float64 `json:"price"`
	Category  *string  `json:"category"`
	Available *bool    `json:"available"`
}

// MenuFilter narrows a catalog listing.
type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

// MaxMenuPrice is the highest unit price a menu item may carry.
const MaxMenuPrice = 1_000_000

// Validate checks the fields every stored item must have.
func (m MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("menu item name must not be empty: %w", ErrInvalidState)
	}
	if math.IsNaN(m.Price) || m.Price < 0 || m.Price > MaxMenuPrice {
		return fmt.Errorf("menu item price must be between 0 and %d: %w", MaxMenuPrice, ErrInvalidState)
	}
	return nil
}

// Apply merges the patch into the item. Open order lines keep their snapshot.
func (m *MenuItem) Apply(patch MenuItemPatch, now time.Time) error {
	next := *m
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		next.Price = *patch.Price
	}
	if patch.Category != nil {
		next.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Available != nil {
		next.Available = *patch.Available
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = now
	*m = next
	return nil
}

// Matches reports whether the item passes the filter.
func (f MenuFilter) Matches(item MenuItem) bool {
	if f.AvailableOnly && !item.Available {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, item.Category) {
		return false
	}
	return true
}
