package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortivest/quotations/backend/src/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func schedule(rates ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(rates))
	for _, r := range rates {
		out = append(out, dec(r))
	}
	return out
}

func TestProject_CapitalAppreciatorCompounds(t *testing.T) {
	p := NewProjectionProcessor()

	in := ProjectionInput{
		ProductType:    models.CapitalAppreciator,
		Term:           3,
		Principal:      dec("100000"),
		BoosterPercent: dec("5"),
		Schedule:       schedule("11.75", "11.85", "11.95"),
	}

	rows, err := p.Project(in)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Booster is applied once, before year 1.
	assert.Equal(t, "105000.00", rows[0].OpeningCapital.StringFixed(2))
	assert.Equal(t, "12337.50", rows[0].IncomeAmount.StringFixed(2))
	assert.Equal(t, "117337.50", rows[0].ClosingCapital.StringFixed(2))

	// Each year compounds on the previous closing capital.
	assert.Equal(t, "117337.50", rows[1].OpeningCapital.StringFixed(2))
	assert.Equal(t, "13904.49", rows[1].IncomeAmount.StringFixed(2))
	assert.Equal(t, "131241.99", rows[1].ClosingCapital.StringFixed(2))

	assert.Equal(t, "15683.42", rows[2].IncomeAmount.StringFixed(2))
	assert.Equal(t, "146925.41", rows[2].ClosingCapital.StringFixed(2))

	// Maturity equals the chained product of the yearly growth factors.
	want := dec("105000").
		Mul(dec("1.1175")).
		Mul(dec("1.1185")).
		Mul(dec("1.1195"))
	maturity := p.MaturityValue(in, rows)
	assert.True(t, maturity.Equal(want), "maturity %s != %s", maturity, want)
}

func TestProject_IncomeProviderKeepsCapitalFlat(t *testing.T) {
	p := NewProjectionProcessor()

	in := ProjectionInput{
		ProductType:    models.IncomeProvider,
		Term:           5,
		Principal:      dec("250000"),
		BoosterPercent: decimal.Zero,
		Schedule:       schedule("10.25", "10.35", "10.45", "10.55", "10.65"),
	}

	rows, err := p.Project(in)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	for i, row := range rows {
		assert.Equal(t, i+1, row.Year)
		assert.True(t, row.OpeningCapital.Equal(dec("250000")), "year %d opening capital moved", row.Year)
		assert.True(t, row.ClosingCapital.Equal(dec("250000")), "year %d closing capital moved", row.Year)
	}

	assert.Equal(t, "25625.00", rows[0].IncomeAmount.StringFixed(2))
	assert.Equal(t, "26625.00", rows[4].IncomeAmount.StringFixed(2))

	// Income is paid out, never reinvested, so the principal comes back whole.
	assert.True(t, p.MaturityValue(in, rows).Equal(dec("250000")))

	total := p.TotalIncome(rows)
	assert.Equal(t, "130625.00", total.StringFixed(2))
}

func TestProject_BoosterAppliedOnceOnly(t *testing.T) {
	p := NewProjectionProcessor()

	in := ProjectionInput{
		ProductType:    models.IncomeProvider,
		Term:           2,
		Principal:      dec("100000"),
		BoosterPercent: dec("2.5"),
		Schedule:       schedule("10", "10"),
	}

	rows, err := p.Project(in)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Both years earn on the same boosted capital, never on a re-boosted one.
	assert.Equal(t, "102500.00", rows[0].OpeningCapital.StringFixed(2))
	assert.Equal(t, "102500.00", rows[1].OpeningCapital.StringFixed(2))
	assert.Equal(t, "10250.00", rows[0].IncomeAmount.StringFixed(2))
	assert.Equal(t, "10250.00", rows[1].IncomeAmount.StringFixed(2))
}

func TestProject_ExtrapolatesPastSchedule(t *testing.T) {
	p := NewProjectionProcessor()

	in := ProjectionInput{
		ProductType:    models.IncomeProvider,
		Term:           5,
		Principal:      dec("100000"),
		BoosterPercent: decimal.Zero,
		Schedule:       schedule("10.00", "10.10", "10.20"),
		StepIncrement:  dec("0.10"),
	}

	rows, err := p.Project(in)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "10.20", rows[2].Rate.StringFixed(2))
	assert.Equal(t, "10.30", rows[3].Rate.StringFixed(2))
	assert.Equal(t, "10.40", rows[4].Rate.StringFixed(2))
}

func TestProject_SingleRateExtendedByStep(t *testing.T) {
	p := NewProjectionProcessor()

	rows, err := p.Project(ProjectionInput{
		ProductType:    models.IncomeProvider,
		Term:           3,
		Principal:      dec("100000"),
		BoosterPercent: decimal.Zero,
		Schedule:       schedule("10"),
		StepIncrement:  dec("0.5"),
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "10.00", rows[0].Rate.StringFixed(2))
	assert.Equal(t, "10.50", rows[1].Rate.StringFixed(2))
	assert.Equal(t, "11.00", rows[2].Rate.StringFixed(2))
}

func TestProject_FullPrecisionUntilFormatting(t *testing.T) {
	p := NewProjectionProcessor()

	in := ProjectionInput{
		ProductType:    models.CapitalAppreciator,
		Term:           3,
		Principal:      dec("100000.33"),
		BoosterPercent: decimal.Zero,
		Schedule:       schedule("11.11", "11.11", "11.11"),
	}

	rows, err := p.Project(in)
	require.NoError(t, err)

	// No intermediate rounding: the final capital is the exact product.
	want := dec("100000.33").Mul(dec("1.1111")).Mul(dec("1.1111")).Mul(dec("1.1111"))
	assert.True(t, rows[2].ClosingCapital.Equal(want))
}

func TestProject_RejectsBadInput(t *testing.T) {
	p := NewProjectionProcessor()

	base := ProjectionInput{
		ProductType:    models.CapitalAppreciator,
		Term:           3,
		Principal:      dec("100000"),
		BoosterPercent: decimal.Zero,
		Schedule:       schedule("11.75", "11.85", "11.95"),
	}

	tests := []struct {
		name   string
		mutate func(in *ProjectionInput)
	}{
		{"zero principal", func(in *ProjectionInput) { in.Principal = decimal.Zero }},
		{"negative principal", func(in *ProjectionInput) { in.Principal = dec("-5") }},
		{"zero term", func(in *ProjectionInput) { in.Term = 0 }},
		{"negative term", func(in *ProjectionInput) { in.Term = -1 }},
		{"empty schedule", func(in *ProjectionInput) { in.Schedule = nil }},
		{"negative booster", func(in *ProjectionInput) { in.BoosterPercent = dec("-1") }},
		{"unknown product", func(in *ProjectionInput) { in.ProductType = "SOMETHING_ELSE" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			rows, err := p.Project(in)
			require.ErrorIs(t, err, ErrInvalidProjectionInput)
			assert.Nil(t, rows)
		})
	}
}
