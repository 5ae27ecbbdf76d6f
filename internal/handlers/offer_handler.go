package handlers

import (
	"net/http"

	"booking-system/internal/services"
	"booking-system/models"

	"github.com/pocketbase/pocketbase/core"
)

type OfferHandler struct {
	offers *services.OfferService
}

func NewOfferHandler(offers *services.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// List is the public catalog; no authentication, active offers only.
func (h *OfferHandler) List(e *core.RequestEvent) error {
	records, err := h.offers.ListActive()
	if err != nil {
		return errorResponse(err)
	}

	out := make([]models.Offer, 0, len(records))
	for _, r := range records {
		out = append(out, services.OfferFromRecord(r))
	}
	return e.JSON(http.StatusOK, out)
}
