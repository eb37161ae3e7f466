package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/logger"
	"github.com/fortivest/quotations/backend/src/models"
	"github.com/fortivest/quotations/backend/src/services"
	"github.com/fortivest/quotations/backend/src/utils"
)

type RateHandler struct {
	rateService services.RateService
}

func NewRateHandler(rateService services.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

func (h *RateHandler) HandleListRateSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.rateService.ListRateSets()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list rate sets", "error", err)
		utils.SendJSONError(w, "Failed to retrieve rate sets", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sets)
}

func (h *RateHandler) HandleSaveRateSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductType string            `json:"product_type"`
		Term        int               `json:"term"`
		Rates       []decimal.Decimal `json:"rates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	set := models.RateSet{
		ProductType: models.ProductType(req.ProductType),
		Term:        req.Term,
		Rates:       req.Rates,
	}
	if err := h.rateService.SaveRateSet(set); err != nil {
		if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, services.ErrInvalidTerm) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to save rate set", "productType", req.ProductType, "term", req.Term, "error", err)
		utils.SendJSONError(w, "Failed to save rate set", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Rate set saved"})
}
