package models

import (
	"github.com/shopspring/decimal"
)

type Offer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	IsActive    bool            `json:"is_active"`
}
