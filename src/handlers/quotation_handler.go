package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/logger"
	"github.com/fortivest/quotations/backend/src/models"
	"github.com/fortivest/quotations/backend/src/services"
	"github.com/fortivest/quotations/backend/src/utils"
)

type QuotationHandler struct {
	quotationService services.QuotationService
	documentService  services.DocumentService
}

func NewQuotationHandler(quotationService services.QuotationService, documentService services.DocumentService) *QuotationHandler {
	return &QuotationHandler{
		quotationService: quotationService,
		documentService:  documentService,
	}
}

// createQuotationRequest is the wire shape of POST /quotations. Monetary and
// rate values arrive as JSON numbers or numeric strings; decimal.Decimal
// accepts both.
type createQuotationRequest struct {
	ProductType     string            `json:"product_type"`
	Term            int               `json:"term"`
	Principal       decimal.Decimal   `json:"principal"`
	BoosterPercent  decimal.Decimal   `json:"booster_percent"`
	RateMode        string            `json:"rate_mode"`
	RateSchedule    []decimal.Decimal `json:"rate_schedule"`
	BaseRate        decimal.Decimal   `json:"base_rate"`
	StepIncrement   decimal.Decimal   `json:"step_increment"`
	IncomeFrequency string            `json:"income_frequency"`
	Commencement    string            `json:"commencement_date"` // YYYY-MM-DD

	Client     models.Client     `json:"client"`
	PreparedBy models.PreparedBy `json:"prepared_by"`
}

// projectionRowResponse rounds the full-precision row to two decimals for
// the on-screen table.
type projectionRowResponse struct {
	Year           int     `json:"year"`
	OpeningCapital float64 `json:"opening_capital"`
	Rate           float64 `json:"rate"`
	IncomeAmount   float64 `json:"income_amount"`
	ClosingCapital float64 `json:"closing_capital"`
}

func toProjectionResponse(rows []models.ProjectionRow) []projectionRowResponse {
	out := make([]projectionRowResponse, len(rows))
	for i, r := range rows {
		out[i] = projectionRowResponse{
			Year:           r.Year,
			OpeningCapital: r.OpeningCapital.Round(2).InexactFloat64(),
			Rate:           r.Rate.Round(2).InexactFloat64(),
			IncomeAmount:   r.IncomeAmount.Round(2).InexactFloat64(),
			ClosingCapital: r.ClosingCapital.Round(2).InexactFloat64(),
		}
	}
	return out
}

func (h *QuotationHandler) HandleCreateQuotation(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "user identity not resolved", http.StatusUnauthorized)
		return
	}

	var req createQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	input := services.QuotationInput{
		UserID:          userID,
		ProductType:     models.ProductType(req.ProductType),
		Term:            req.Term,
		Principal:       req.Principal,
		BoosterPercent:  req.BoosterPercent,
		RateMode:        models.RateMode(req.RateMode),
		RateSchedule:    req.RateSchedule,
		BaseRate:        req.BaseRate,
		StepIncrement:   req.StepIncrement,
		IncomeFrequency: models.IncomeFrequency(req.IncomeFrequency),
		Client:          req.Client,
		PreparedBy:      req.PreparedBy,
	}
	if input.RateMode == "" {
		input.RateMode = models.RateModeExplicit
	}
	if req.Commencement != "" {
		t, err := time.Parse("2006-01-02", req.Commencement)
		if err != nil {
			utils.SendJSONError(w, "commencement_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		input.CommencementDate = t
	}

	q, rows, err := h.quotationService.CreateQuotation(input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, services.ErrInvalidTerm) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to create quotation", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create quotation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"quotation":  q,
		"projection": toProjectionResponse(rows),
	}); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding quotation response", "error", err)
	}
}

func (h *QuotationHandler) HandleListQuotations(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "user identity not resolved", http.StatusUnauthorized)
		return
	}
	quotations, err := h.quotationService.ListQuotations(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list quotations", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve quotations", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quotations)
}

func (h *QuotationHandler) HandleGetQuotation(w http.ResponseWriter, r *http.Request) {
	userID, quotationID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	q, err := h.quotationService.GetQuotation(userID, quotationID)
	if err != nil {
		h.respondQuotationError(w, r, userID, quotationID, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(q)
}

func (h *QuotationHandler) HandleGetProjection(w http.ResponseWriter, r *http.Request) {
	userID, quotationID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	rows, err := h.quotationService.GetProjection(userID, quotationID)
	if err != nil {
		h.respondQuotationError(w, r, userID, quotationID, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProjectionResponse(rows))
}

// HandleDownloadDocument composes the document for a stored quotation,
// persists the bytes plus a metadata record, and streams the PDF back as a
// downloadable attachment. ?style=summary selects the legacy short form.
func (h *QuotationHandler) HandleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	userID, quotationID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	q, err := h.quotationService.GetQuotation(userID, quotationID)
	if err != nil {
		h.respondQuotationError(w, r, userID, quotationID, err)
		return
	}
	rows, err := h.quotationService.GetProjection(userID, quotationID)
	if err != nil {
		h.respondQuotationError(w, r, userID, quotationID, err)
		return
	}

	style := services.StyleProposal
	if r.URL.Query().Get("style") == string(services.StyleSummary) {
		style = services.StyleSummary
	}

	doc, err := h.documentService.Generate(q, rows, style)
	if err != nil {
		if errors.Is(err, services.ErrAssetMissing) {
			logger.FromContext(r.Context()).Error("Document asset missing", "quotationID", quotationID, "error", err)
			utils.SendJSONError(w, "Document generation failed: required asset missing", http.StatusInternalServerError)
			return
		}
		logger.FromContext(r.Context()).Error("Document generation failed", "quotationID", quotationID, "error", err)
		utils.SendJSONError(w, "Document generation failed", http.StatusInternalServerError)
		return
	}

	record, err := h.documentService.Persist(q, doc)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to persist document", "quotationID", quotationID, "error", err)
		utils.SendJSONError(w, "Failed to store generated document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.Header().Set("X-Document-ID", strconv.FormatInt(record.ID, 10))
	if _, err := w.Write(doc.Bytes); err != nil {
		logger.FromContext(r.Context()).Error("Error streaming document", "quotationID", quotationID, "error", err)
	}
}

func (h *QuotationHandler) HandleDeleteQuotation(w http.ResponseWriter, r *http.Request) {
	userID, quotationID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	if err := h.quotationService.DeleteQuotation(userID, quotationID); err != nil {
		h.respondQuotationError(w, r, userID, quotationID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestScope resolves the acting user and the {id} route parameter,
// responding with the appropriate error itself when either is missing.
func (h *QuotationHandler) requestScope(w http.ResponseWriter, r *http.Request) (userID, quotationID int64, ok bool) {
	userID, found := GetUserIDFromContext(r.Context())
	if !found {
		utils.SendJSONError(w, "user identity not resolved", http.StatusUnauthorized)
		return 0, 0, false
	}
	quotationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || quotationID <= 0 {
		utils.SendJSONError(w, "Invalid quotation id", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, quotationID, true
}

func (h *QuotationHandler) respondQuotationError(w http.ResponseWriter, r *http.Request, userID, quotationID int64, err error) {
	if errors.Is(err, services.ErrQuotationNotFound) {
		utils.SendJSONError(w, "Quotation not found", http.StatusNotFound)
		return
	}
	logger.FromContext(r.Context()).Error("Quotation request failed", "userID", userID, "quotationID", quotationID, "error", err)
	utils.SendJSONError(w, "Failed to process quotation request", http.StatusInternalServerError)
}
