package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// SettingsID is the key of the singleton settings document.
	SettingsID      = "restaurant"
	DefaultTaxRate  = 18.0
	DefaultCurrency = "INR"

	// MaxTaxRate is the highest accepted tax percentage.
	MaxTaxRate = 100.0
)

// ValidTaxRate reports whether rate is a percentage in [0, MaxTaxRate] with at
// most two decimals, the precision bills are taxed at.
func ValidTaxRate(rate float64) bool {
	if math.IsNaN(rate) || rate < 0 || rate > MaxTaxRate {
		return false
	}
	scaled := rate * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// Settings holds the tax rate and restaurant metadata printed on bills.
type Settings struct {
	ID             string    `bson:"_id" json:"-"`
	TaxRate        float64   `bson:"tax_rate" json:"tax_rate"`
	RestaurantName string    `bson:"restaurant_name" json:"restaurant_name"`
	Address        string    `bson:"address" json:"address"`
	Phone          string    `bson:"phone" json:"phone"`
	GSTIN          string    `bson:"gstin" json:"gstin"`
	Currency       string    `bson:"currency" json:"currency"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// SettingsPatch carries a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	TaxRate        *float64 `json:"tax_rate"`
	RestaurantName *string  `json:"restaurant_name"`
	Address        *string  `json:"address"`
	Phone          *string  `json:"phone"`
	GSTIN          *string  `json:"gstin"`
	Currency       *string  `json:"currency"`
}

// DefaultSettings is what a first read creates.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		ID:        SettingsID,
		TaxRate:   DefaultTaxRate,
		Currency:  DefaultCurrency,
		UpdatedAt: now,
	}
}

// Apply merges the patch. The tax rate must satisfy ValidTaxRate.
func (s *Settings) Apply(patch SettingsPatch, now time.Time) error {
	if patch.TaxRate != nil && !ValidTaxRate(*patch.TaxRate) {
		return fmt.Errorf("tax rate must be between 0 and %v with at most two decimals, got %v: %w",
			MaxTaxRate, *patch.TaxRate, ErrInvalidState)
	}

	if patch.TaxRate != nil {
		s.TaxRate = *patch.TaxRate
	}
	if patch.RestaurantName != nil {
		s.RestaurantName = strings.TrimSpace(*patch.RestaurantName)
	}
	if patch.Address != nil {
		s.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Phone != nil {
		s.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.GSTIN != nil {
		s.GSTIN = strings.TrimSpace(*patch.GSTIN)
	}
	if patch.Currency != nil {
		s.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	s.ID = SettingsID
	s.UpdatedAt = now
	return nil
}
