package handler

import (
	"net/http"
	"strings"

	"discount-service/internal/model"
	"discount-service/internal/service"

	"github.com/rs/zerolog"
)

const (
	discountsPath   = "/api/discounts/"
	reconcileSuffix = "/reconcile"
)

// DiscountHandler handles discount inspection and maintenance requests.
type DiscountHandler struct {
	service service.DiscountService
	logger  zerolog.Logger
}

// NewDiscountHandler creates a new discount handler.
func NewDiscountHandler(service service.DiscountService, logger zerolog.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: service,
		logger:  logger.With().Str("handler", "discount").Logger(),
	}
}

// GetByID handles GET /api/discounts/{id} requests.
func (h *DiscountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	discountID := strings.TrimPrefix(r.URL.Path, discountsPath)
	if discountID == "" || discountID == r.URL.Path || strings.Contains(discountID, "/") {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "discount ID is required", h.logger)
		return
	}

	discount, err := h.service.GetByID(r.Context(), discountID)
	if err != nil {
		writeServiceError(w, err, h.logger.With().Str("discount_id", discountID).Logger())
		return
	}

	writeJSON(w, http.StatusOK, discount)
}

// Reconcile handles POST /api/discounts/{id}/reconcile requests.
func (h *DiscountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	// Expecting path: /api/discounts/{id}/reconcile
	discountID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, discountsPath), reconcileSuffix)
	if discountID == "" || strings.Contains(discountID, "/") || !strings.HasSuffix(r.URL.Path, reconcileSuffix) {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "discount ID is required", h.logger)
		return
	}

	discount, err := h.service.Reconcile(r.Context(), discountID)
	if err != nil {
		writeServiceError(w, err, h.logger.With().Str("discount_id", discountID).Logger())
		return
	}

	writeJSON(w, http.StatusOK, discount)
}

// IsReconcilePath reports whether path addresses the reconcile action.
func IsReconcilePath(path string) bool {
	return strings.HasPrefix(path, discountsPath) && strings.HasSuffix(path, reconcileSuffix)
}
