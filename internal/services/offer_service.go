package services

import (
	"fmt"

	"booking-system/internal/status"
	"booking-system/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// OfferService manages the sellable catalog. Capacity here is only ever
// set by an administrator; the running decrement belongs to the ticket
// issuer.
type OfferService struct {
	app core.App
}

func NewOfferService(app core.App) *OfferService {
	return &OfferService{app: app}
}

func (s *OfferService) ListActive() ([]*core.Record, error) {
	return s.app.FindRecordsByFilter("offers", "is_active = true", "name", 0, 0)
}

func (s *OfferService) Create(name, description string, price decimal.Decimal, capacity int) (*core.Record, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: offer name is required", status.ErrValidation)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", status.ErrValidation)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", status.ErrValidation)
	}

	collection, err := s.app.FindCollectionByNameOrId("offers")
	if err != nil {
		return nil, err
	}

	offer := core.NewRecord(collection)
	offer.Set("name", name)
	offer.Set("description", description)
	offer.Set("price", price.InexactFloat64())
	offer.Set("capacity", capacity)
	offer.Set("is_active", true)

	if err := s.app.Save(offer); err != nil {
		return nil, fmt.Errorf("save offer: %w", err)
	}
	return offer, nil
}

// OfferPatch mirrors the reservation patch style: nil means untouched.
type OfferPatch struct {
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Capacity    *int     `json:"capacity"`
	IsActive    *bool    `json:"is_active"`
}

func (s *OfferService) Update(id string, patch OfferPatch) (*core.Record, error) {
	offer, err := s.app.FindRecordById("offers", id)
	if err != nil {
		return nil, status.ErrNotFound
	}

	if patch.Description != nil {
		offer.Set("description", *patch.Description)
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", status.ErrValidation)
		}
		offer.Set("price", *patch.Price)
	}
	if patch.Capacity != nil {
		if *patch.Capacity < 0 {
			return nil, fmt.Errorf("%w: capacity must not be negative", status.ErrValidation)
		}
		offer.Set("capacity", *patch.Capacity)
	}
	if patch.IsActive != nil {
		offer.Set("is_active", *patch.IsActive)
	}

	if err := s.app.Save(offer); err != nil {
		return nil, fmt.Errorf("save offer: %w", err)
	}
	return offer, nil
}

// OfferFromRecord converts a stored record to its API shape.
func OfferFromRecord(r *core.Record) models.Offer {
	return models.Offer{
		ID:          r.Id,
		Name:        r.GetString("name"),
		Description: r.GetString("description"),
		Price:       decimal.NewFromFloat(r.GetFloat("price")),
		Capacity:    r.GetInt("capacity"),
		IsActive:    r.GetBool("is_active"),
	}
}
