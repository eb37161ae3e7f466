package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType identifies which of the two quotation variants is being
// projected and rendered. The composer is the only place that branches on it.
type ProductType string

const (
	// CapitalAppreciator reinvests each year's income, compounding the capital.
	CapitalAppreciator ProductType = "CAPITAL_APPRECIATOR"
	// IncomeProvider pays income out each year; capital stays flat and is
	// returned unchanged at the end of the term.
	IncomeProvider ProductType = "INCOME_PROVIDER"
)

// Valid reports whether p is one of the two supported product types.
func (p ProductType) Valid() bool {
	return p == CapitalAppreciator || p == IncomeProvider
}

// RateMode selects how the per-year rate schedule is supplied.
type RateMode string

const (
	// RateModeExplicit uses the ordered list supplied (or resolved) verbatim.
	RateModeExplicit RateMode = "EXPLICIT"
	// RateModeBaseStep derives the schedule from a base rate plus a fixed
	// increment per year.
	RateModeBaseStep RateMode = "BASE_STEP"
)

// IncomeFrequency is how often an IncomeProvider quotation allocates income.
type IncomeFrequency string

const (
	FrequencyMonthly   IncomeFrequency = "MONTHLY"
	FrequencyQuarterly IncomeFrequency = "QUARTERLY"
	FrequencyAnnually  IncomeFrequency = "ANNUALLY"
)

// Valid reports whether f is a supported allocation frequency.
func (f IncomeFrequency) Valid() bool {
	return f == FrequencyMonthly || f == FrequencyQuarterly || f == FrequencyAnnually
}

// SupportedTerms are the term buckets quotations may use, in years.
var SupportedTerms = []int{1, 3, 5}

// TermSupported reports whether term is one of the supported buckets.
func TermSupported(term int) bool {
	for _, t := range SupportedTerms {
		if term == t {
			return true
		}
	}
	return false
}

// Client holds the display fields printed on a generated document. They are
// pass-through: sanitized on input, never interpreted.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// PreparedBy is the contact block of the person issuing the quotation.
type PreparedBy struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Quotation is the validated input record for one projection/generation run.
// It is immutable once created; all derived data lives elsewhere.
type Quotation struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	ProductType ProductType `json:"product_type"`
	Term        int         `json:"term"`

	Principal      decimal.Decimal `json:"principal"`
	BoosterPercent decimal.Decimal `json:"booster_percent"`

	RateMode      RateMode          `json:"rate_mode"`
	RateSchedule  []decimal.Decimal `json:"rate_schedule"`
	BaseRate      decimal.Decimal   `json:"base_rate"`
	StepIncrement decimal.Decimal   `json:"step_increment"`

	// IncomeProvider only.
	IncomeFrequency IncomeFrequency `json:"income_frequency,omitempty"`

	CommencementDate time.Time `json:"commencement_date"`
	RedemptionDate   time.Time `json:"redemption_date"`

	Client     Client     `json:"client"`
	PreparedBy PreparedBy `json:"prepared_by"`

	CreatedAt time.Time `json:"created_at"`
}

// ProjectionRow is one year of the computed projection. Monetary values keep
// full precision; rounding to two decimals happens only when formatting.
type ProjectionRow struct {
	Year           int             `json:"year"`
	OpeningCapital decimal.Decimal `json:"opening_capital"`
	Rate           decimal.Decimal `json:"rate"`
	IncomeAmount   decimal.Decimal `json:"income_amount"`
	ClosingCapital decimal.Decimal `json:"closing_capital"`
}

// RateSet is an admin-configured override of the default rate table for a
// (product type, term) pair. Rates are ordered year 1..term.
type RateSet struct {
	ID          int64             `json:"id"`
	ProductType ProductType       `json:"product_type"`
	Term        int               `json:"term"`
	Rates       []decimal.Decimal `json:"rates"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
