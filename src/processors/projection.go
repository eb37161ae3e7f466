package processors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/models"
)

// ErrInvalidProjectionInput is returned when the projection cannot start at
// all. No partial rows are ever returned alongside it.
var ErrInvalidProjectionInput = errors.New("invalid projection input")

var oneHundred = decimal.NewFromInt(100)

// ProjectionInput carries everything the projection needs for one run.
// Schedule holds the per-year rates as percentages, ordered year 1..n.
type ProjectionInput struct {
	ProductType    models.ProductType
	Term           int
	Principal      decimal.Decimal
	BoosterPercent decimal.Decimal
	Schedule       []decimal.Decimal
	// StepIncrement extends the schedule when Term exceeds its length.
	// Normally term and schedule length match, so this stays unused.
	StepIncrement decimal.Decimal
}

// ProjectionProcessor computes the multi-year income/capital projection for a
// quotation. It is stateless and safe for concurrent use.
type ProjectionProcessor struct{}

func NewProjectionProcessor() *ProjectionProcessor {
	return &ProjectionProcessor{}
}

// Project iterates year 1..term, compounding (CapitalAppreciator) or paying
// out (IncomeProvider) each year's income. All arithmetic stays at full
// decimal precision; callers round only when formatting.
func (p *ProjectionProcessor) Project(in ProjectionInput) ([]models.ProjectionRow, error) {
	if in.Principal.Sign() <= 0 {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidProjectionInput, in.Principal)
	}
	if in.Term <= 0 {
		return nil, fmt.Errorf("%w: term must be positive, got %d", ErrInvalidProjectionInput, in.Term)
	}
	if len(in.Schedule) == 0 {
		return nil, fmt.Errorf("%w: rate schedule is empty", ErrInvalidProjectionInput)
	}
	if in.BoosterPercent.Sign() < 0 {
		return nil, fmt.Errorf("%w: booster percent cannot be negative, got %s", ErrInvalidProjectionInput, in.BoosterPercent)
	}
	if !in.ProductType.Valid() {
		return nil, fmt.Errorf("%w: unknown product type %q", ErrInvalidProjectionInput, in.ProductType)
	}

	// Booster applies once, before year 1.
	capital := in.Principal.Mul(decimal.NewFromInt(1).Add(in.BoosterPercent.Div(oneHundred)))

	rows := make([]models.ProjectionRow, 0, in.Term)
	for year := 1; year <= in.Term; year++ {
		rate := rateForYear(in.Schedule, in.StepIncrement, year)
		income := capital.Mul(rate.Div(oneHundred))

		row := models.ProjectionRow{
			Year:           year,
			OpeningCapital: capital,
			Rate:           rate,
			IncomeAmount:   income,
		}
		switch in.ProductType {
		case models.CapitalAppreciator:
			row.ClosingCapital = capital.Add(income)
			capital = row.ClosingCapital
		case models.IncomeProvider:
			row.ClosingCapital = capital
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MaturityValue is the amount returned at the end of the term: the final
// closing capital for a CapitalAppreciator, the untouched principal for an
// IncomeProvider.
func (p *ProjectionProcessor) MaturityValue(in ProjectionInput, rows []models.ProjectionRow) decimal.Decimal {
	if in.ProductType == models.IncomeProvider {
		return in.Principal
	}
	if len(rows) == 0 {
		return decimal.Zero
	}
	return rows[len(rows)-1].ClosingCapital
}

// TotalIncome sums the income column, the headline figure for IncomeProvider
// documents.
func (p *ProjectionProcessor) TotalIncome(rows []models.ProjectionRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.IncomeAmount)
	}
	return total
}

// rateForYear returns the percentage for a 1-based year, extrapolating past
// the end of the schedule with lastRate + (year - len) * step.
func rateForYear(schedule []decimal.Decimal, step decimal.Decimal, year int) decimal.Decimal {
	if year <= len(schedule) {
		return schedule[year-1]
	}
	over := decimal.NewFromInt(int64(year - len(schedule)))
	return schedule[len(schedule)-1].Add(step.Mul(over))
}
