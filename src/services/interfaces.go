package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/models"
)

// Define common service errors
var (
	ErrInvalidTerm       = errors.New("term must be one of 1, 3 or 5 years")
	ErrInvalidInput      = errors.New("quotation input validation failed")
	ErrQuotationNotFound = errors.New("quotation not found")
	ErrAssetMissing      = errors.New("document asset missing")
)

// QuotationInput is the payload accepted for creating a quotation. Rate
// fields are interpreted per RateMode: an explicit ordered list, or a base
// rate plus per-year step. Client strings are sanitized before persisting.
type QuotationInput struct {
	UserID      int64
	ProductType models.ProductType
	Term        int

	Principal      decimal.Decimal
	BoosterPercent decimal.Decimal

	RateMode      models.RateMode
	RateSchedule  []decimal.Decimal
	BaseRate      decimal.Decimal
	StepIncrement decimal.Decimal

	IncomeFrequency models.IncomeFrequency

	CommencementDate time.Time

	Client     models.Client
	PreparedBy models.PreparedBy
}

// QuotationService owns quotation lifecycle: validation, rate resolution,
// projection, persistence and retrieval.
type QuotationService interface {
	CreateQuotation(input QuotationInput) (*models.Quotation, []models.ProjectionRow, error)
	GetQuotation(userID, quotationID int64) (*models.Quotation, error)
	GetProjection(userID, quotationID int64) ([]models.ProjectionRow, error)
	ListQuotations(userID int64) ([]models.Quotation, error)
	DeleteQuotation(userID, quotationID int64) error
}

// RateService resolves the per-year rate schedule for a product/term pair,
// preferring admin-configured overrides over the built-in default table.
type RateService interface {
	Resolve(productType models.ProductType, term int) ([]decimal.Decimal, error)
	ResolveStep(baseRate, stepIncrement decimal.Decimal, term int) ([]decimal.Decimal, error)
	ListRateSets() ([]models.RateSet, error)
	SaveRateSet(set models.RateSet) error
}

// DocumentStyle selects which rendition of the quotation document to compose.
type DocumentStyle string

const (
	// StyleProposal is the canonical full document: cover page, summary,
	// projection table, conditions, fee tables and signature block.
	StyleProposal DocumentStyle = "proposal"
	// StyleSummary is the legacy single-pass form without cover, conditions
	// or signature block.
	StyleSummary DocumentStyle = "summary"
)

// GeneratedDocument is the in-memory result of one composer run, before any
// side effect takes place.
type GeneratedDocument struct {
	Bytes        []byte
	OriginalName string
	MimeType     string
}

// DocumentService composes quotation documents and persists the bytes plus a
// metadata record. Generation either completes fully or fails with nothing
// persisted.
type DocumentService interface {
	Generate(q *models.Quotation, rows []models.ProjectionRow, style DocumentStyle) (*GeneratedDocument, error)
	Persist(q *models.Quotation, doc *GeneratedDocument) (*models.DocumentRecord, error)
}
