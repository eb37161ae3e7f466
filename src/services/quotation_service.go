package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/database"
	"github.com/fortivest/quotations/backend/src/logger"
	"github.com/fortivest/quotations/backend/src/models"
	"github.com/fortivest/quotations/backend/src/processors"
	"github.com/fortivest/quotations/backend/src/security/validation"
)

const ckProjection = "projection_user_%d_quotation_%d"

type quotationServiceImpl struct {
	rateService         RateService
	projectionProcessor *processors.ProjectionProcessor
	resultCache         *cache.Cache
}

func NewQuotationService(
	rateService RateService,
	projectionProcessor *processors.ProjectionProcessor,
	resultCache *cache.Cache,
) QuotationService {
	return &quotationServiceImpl{
		rateService:         rateService,
		projectionProcessor: projectionProcessor,
		resultCache:         resultCache,
	}
}

// CreateQuotation validates and sanitizes the input, resolves the rate
// schedule, runs the projection once to prove the quotation is computable,
// then persists the client and quotation rows in one transaction.
func (s *quotationServiceImpl) CreateQuotation(input QuotationInput) (*models.Quotation, []models.ProjectionRow, error) {
	if err := validateQuotationInput(&input); err != nil {
		return nil, nil, err
	}
	sanitizeClient(&input)

	schedule, err := s.resolveSchedule(input)
	if err != nil {
		return nil, nil, err
	}

	q := &models.Quotation{
		UserID:           input.UserID,
		ProductType:      input.ProductType,
		Term:             input.Term,
		Principal:        input.Principal,
		BoosterPercent:   input.BoosterPercent,
		RateMode:         input.RateMode,
		RateSchedule:     schedule,
		BaseRate:         input.BaseRate,
		StepIncrement:    input.StepIncrement,
		IncomeFrequency:  input.IncomeFrequency,
		CommencementDate: input.CommencementDate,
		RedemptionDate:   input.CommencementDate.AddDate(input.Term, 0, 0),
		Client:           input.Client,
		PreparedBy:       input.PreparedBy,
		CreatedAt:        time.Now(),
	}

	rows, err := s.projectionProcessor.Project(processors.ProjectionInput{
		ProductType:    q.ProductType,
		Term:           q.Term,
		Principal:      q.Principal,
		BoosterPercent: q.BoosterPercent,
		Schedule:       q.RateSchedule,
		StepIncrement:  q.StepIncrement,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.Exec(
		"INSERT INTO clients (name, address, phone, email) VALUES (?, ?, ?, ?)",
		q.Client.Name, q.Client.Address, q.Client.Phone, q.Client.Email,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("error inserting client: %w", err)
	}
	clientID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading client id: %w", err)
	}
	q.Client.ID = clientID

	scheduleJSON, err := encodeRates(q.RateSchedule)
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding rate schedule: %w", err)
	}

	res, err = dbTx.Exec(`
		INSERT INTO quotations
		(user_id, client_id, product_type, term, principal, booster_percent,
		 rate_mode, rate_schedule, base_rate, step_increment, income_frequency,
		 commencement_date, redemption_date, prepared_by_name, prepared_by_phone, prepared_by_email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.UserID, clientID, string(q.ProductType), q.Term, q.Principal.String(), q.BoosterPercent.String(),
		string(q.RateMode), scheduleJSON, q.BaseRate.String(), q.StepIncrement.String(), string(q.IncomeFrequency),
		q.CommencementDate.Format("2006-01-02"), q.RedemptionDate.Format("2006-01-02"),
		q.PreparedBy.Name, q.PreparedBy.Phone, q.PreparedBy.Email,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("error inserting quotation: %w", err)
	}
	q.ID, err = res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading quotation id: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("error committing quotation: %w", err)
	}

	s.resultCache.SetDefault(fmt.Sprintf(ckProjection, q.UserID, q.ID), rows)
	logger.L.Info("Quotation created", "quotationID", q.ID, "userID", q.UserID, "productType", q.ProductType, "term", q.Term)
	return q, rows, nil
}

func (s *quotationServiceImpl) resolveSchedule(input QuotationInput) ([]decimal.Decimal, error) {
	switch input.RateMode {
	case models.RateModeBaseStep:
		return s.rateService.ResolveStep(input.BaseRate, input.StepIncrement, input.Term)
	case models.RateModeExplicit:
		if len(input.RateSchedule) > 0 {
			return input.RateSchedule, nil
		}
		return s.rateService.Resolve(input.ProductType, input.Term)
	default:
		return nil, fmt.Errorf("%w: unknown rate mode %q", ErrInvalidInput, input.RateMode)
	}
}

func (s *quotationServiceImpl) GetQuotation(userID, quotationID int64) (*models.Quotation, error) {
	q := &models.Quotation{}
	var productType, rateMode, frequency string
	var principal, booster, baseRate, step, scheduleJSON string
	var commencement, redemption string

	err := database.DB.QueryRow(`
		SELECT q.id, q.user_id, q.client_id, q.product_type, q.term, q.principal, q.booster_percent,
		       q.rate_mode, q.rate_schedule, q.base_rate, q.step_increment, q.income_frequency,
		       q.commencement_date, q.redemption_date,
		       q.prepared_by_name, q.prepared_by_phone, q.prepared_by_email, q.created_at,
		       c.name, c.address, c.phone, c.email
		FROM quotations q JOIN clients c ON c.id = q.client_id
		WHERE q.id = ? AND q.user_id = ?`, quotationID, userID,
	).Scan(
		&q.ID, &q.UserID, &q.Client.ID, &productType, &q.Term, &principal, &booster,
		&rateMode, &scheduleJSON, &baseRate, &step, &frequency,
		&commencement, &redemption,
		&q.PreparedBy.Name, &q.PreparedBy.Phone, &q.PreparedBy.Email, &q.CreatedAt,
		&q.Client.Name, &q.Client.Address, &q.Client.Phone, &q.Client.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("error loading quotation %d: %w", quotationID, err)
	}

	q.ProductType = models.ProductType(productType)
	q.RateMode = models.RateMode(rateMode)
	q.IncomeFrequency = models.IncomeFrequency(frequency)
	if q.Principal, err = decimal.NewFromString(principal); err != nil {
		return nil, fmt.Errorf("stored principal is malformed: %w", err)
	}
	if q.BoosterPercent, err = decimal.NewFromString(booster); err != nil {
		return nil, fmt.Errorf("stored booster is malformed: %w", err)
	}
	if q.BaseRate, err = decimal.NewFromString(baseRate); err != nil {
		return nil, fmt.Errorf("stored base rate is malformed: %w", err)
	}
	if q.StepIncrement, err = decimal.NewFromString(step); err != nil {
		return nil, fmt.Errorf("stored step increment is malformed: %w", err)
	}
	if q.RateSchedule, err = decodeRates(scheduleJSON); err != nil {
		return nil, fmt.Errorf("stored rate schedule is malformed: %w", err)
	}
	if q.CommencementDate, err = time.Parse("2006-01-02", commencement); err != nil {
		return nil, fmt.Errorf("stored commencement date is malformed: %w", err)
	}
	if q.RedemptionDate, err = time.Parse("2006-01-02", redemption); err != nil {
		return nil, fmt.Errorf("stored redemption date is malformed: %w", err)
	}
	return q, nil
}

// GetProjection recomputes the rows for a stored quotation. Results are
// cached; the projection itself is cheap but the handler may poll.
func (s *quotationServiceImpl) GetProjection(userID, quotationID int64) ([]models.ProjectionRow, error) {
	cacheKey := fmt.Sprintf(ckProjection, userID, quotationID)
	if cached, found := s.resultCache.Get(cacheKey); found {
		return cached.([]models.ProjectionRow), nil
	}

	q, err := s.GetQuotation(userID, quotationID)
	if err != nil {
		return nil, err
	}
	rows, err := s.projectionProcessor.Project(processors.ProjectionInput{
		ProductType:    q.ProductType,
		Term:           q.Term,
		Principal:      q.Principal,
		BoosterPercent: q.BoosterPercent,
		Schedule:       q.RateSchedule,
		StepIncrement:  q.StepIncrement,
	})
	if err != nil {
		return nil, fmt.Errorf("stored quotation %d failed projection: %w", quotationID, err)
	}
	s.resultCache.SetDefault(cacheKey, rows)
	return rows, nil
}

func (s *quotationServiceImpl) ListQuotations(userID int64) ([]models.Quotation, error) {
	rows, err := database.DB.Query(`
		SELECT q.id, q.product_type, q.term, q.principal, q.commencement_date, q.created_at, c.id, c.name
		FROM quotations q JOIN clients c ON c.id = q.client_id
		WHERE q.user_id = ? ORDER BY q.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotations []models.Quotation
	for rows.Next() {
		var q models.Quotation
		var productType, principal, commencement string
		if err := rows.Scan(&q.ID, &productType, &q.Term, &principal, &commencement, &q.CreatedAt, &q.Client.ID, &q.Client.Name); err != nil {
			logger.L.Error("Row scan error for quotation", "error", err)
			continue
		}
		q.UserID = userID
		q.ProductType = models.ProductType(productType)
		if q.Principal, err = decimal.NewFromString(principal); err != nil {
			logger.L.Error("Stored principal is malformed", "quotationID", q.ID, "error", err)
			continue
		}
		if q.CommencementDate, err = time.Parse("2006-01-02", commencement); err != nil {
			logger.L.Error("Stored commencement date is malformed", "quotationID", q.ID, "error", err)
			continue
		}
		quotations = append(quotations, q)
	}
	if quotations == nil {
		quotations = []models.Quotation{}
	}
	return quotations, rows.Err()
}

func (s *quotationServiceImpl) DeleteQuotation(userID, quotationID int64) error {
	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	var clientID int64
	err = tx.QueryRow("SELECT client_id FROM quotations WHERE id = ? AND user_id = ?", quotationID, userID).Scan(&clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuotationNotFound
		}
		return err
	}

	_, _ = tx.Exec("DELETE FROM documents WHERE quotation_id = ?", quotationID)
	if _, err = tx.Exec("DELETE FROM quotations WHERE id = ? AND user_id = ?", quotationID, userID); err != nil {
		return fmt.Errorf("error deleting quotation: %w", err)
	}
	if _, err = tx.Exec("DELETE FROM clients WHERE id = ?", clientID); err != nil {
		return fmt.Errorf("error deleting client: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.resultCache.Delete(fmt.Sprintf(ckProjection, userID, quotationID))
	return nil
}

// validateQuotationInput rejects anything the projection or composer cannot
// handle. Runs before any layout or persistence work begins.
func validateQuotationInput(input *QuotationInput) error {
	if !input.ProductType.Valid() {
		return fmt.Errorf("%w: unknown product type %q", ErrInvalidInput, input.ProductType)
	}
	if !models.TermSupported(input.Term) {
		return fmt.Errorf("%w: got %d", ErrInvalidTerm, input.Term)
	}
	if input.Principal.Sign() <= 0 {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	}
	if input.BoosterPercent.Sign() < 0 {
		return fmt.Errorf("%w: booster percent cannot be negative", ErrInvalidInput)
	}
	if input.RateMode == models.RateModeExplicit && len(input.RateSchedule) > 0 && len(input.RateSchedule) != input.Term {
		return fmt.Errorf("%w: explicit rate schedule must carry %d rates, got %d", ErrInvalidInput, input.Term, len(input.RateSchedule))
	}
	if input.ProductType == models.IncomeProvider && !input.IncomeFrequency.Valid() {
		return fmt.Errorf("%w: income provider quotations require an allocation frequency", ErrInvalidInput)
	}
	if input.CommencementDate.IsZero() {
		return fmt.Errorf("%w: commencement date is required", ErrInvalidInput)
	}
	if err := validation.ValidateStringNotEmpty(input.Client.Name, "client name"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for field, value := range map[string]string{
		"client name":    input.Client.Name,
		"client address": input.Client.Address,
		"client phone":   input.Client.Phone,
		"client email":   input.Client.Email,
		"prepared by":    input.PreparedBy.Name,
	} {
		if err := validation.ValidateStringMaxLength(value, validation.DefaultMaxStringLength, field); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

// sanitizeClient strips HTML and unprintable characters from the pass-through
// display strings before they reach the database or a rendered page.
func sanitizeClient(input *QuotationInput) {
	clean := func(s string) string {
		return validation.StripUnprintable(validation.SanitizeText(s))
	}
	input.Client.Name = clean(input.Client.Name)
	input.Client.Address = clean(input.Client.Address)
	input.Client.Phone = clean(input.Client.Phone)
	input.Client.Email = clean(input.Client.Email)
	input.PreparedBy.Name = clean(input.PreparedBy.Name)
	input.PreparedBy.Phone = clean(input.PreparedBy.Phone)
	input.PreparedBy.Email = clean(input.PreparedBy.Email)
}
