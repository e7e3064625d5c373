package handler

import (
	"encoding/json"
	"net/http"

	"discount-service/internal/model"
	"discount-service/internal/service"

	"github.com/rs/zerolog"
)

// maxRequestBody bounds the redemption payload.
const maxRequestBody = 1 << 16

// RedemptionHandler handles discount redemption requests.
type RedemptionHandler struct {
	service service.RedemptionService
	logger  zerolog.Logger
}

// NewRedemptionHandler creates a new redemption handler.
func NewRedemptionHandler(service service.RedemptionService, logger zerolog.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		service: service,
		logger:  logger.With().Str("handler", "redemption").Logger(),
	}
}

// Redeem handles POST /api/redemptions requests.
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req model.RedeemRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, validationMessage(err), h.logger)
		return
	}

	logger := h.logger.With().Str("discount_id", req.DiscountID).Str("user_id", req.UserID).Logger()

	if err := h.service.Redeem(r.Context(), req.DiscountID, req.UserID); err != nil {
		writeServiceError(w, err, logger)
		return
	}

	writeJSON(w, http.StatusOK, model.RedeemResponse{Success: true})
}
