package services

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fortivest/quotations/backend/src/database"
	"github.com/fortivest/quotations/backend/src/models"
	"github.com/fortivest/quotations/backend/src/processors"
)

const testSchema = `
CREATE TABLE clients (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE quotations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    client_id INTEGER NOT NULL REFERENCES clients(id),
    product_type TEXT NOT NULL,
    term INTEGER NOT NULL,
    principal TEXT NOT NULL,
    booster_percent TEXT NOT NULL DEFAULT '0',
    rate_mode TEXT NOT NULL DEFAULT 'EXPLICIT',
    rate_schedule TEXT NOT NULL,
    base_rate TEXT NOT NULL DEFAULT '0',
    step_increment TEXT NOT NULL DEFAULT '0',
    income_frequency TEXT NOT NULL DEFAULT '',
    commencement_date TEXT NOT NULL,
    redemption_date TEXT NOT NULL,
    prepared_by_name TEXT NOT NULL DEFAULT '',
    prepared_by_phone TEXT NOT NULL DEFAULT '',
    prepared_by_email TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    original_name TEXT NOT NULL,
    size INTEGER NOT NULL,
    mime_type TEXT NOT NULL,
    quotation_id INTEGER NOT NULL REFERENCES quotations(id),
    client_id INTEGER NOT NULL REFERENCES clients(id),
    user_id INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE rate_sets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    product_type TEXT NOT NULL,
    term INTEGER NOT NULL,
    rates TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (product_type, term)
);
`

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		db.Close()
	})
}

func newTestQuotationService() QuotationService {
	rateSvc := NewRateService(&stubRateStore{}, cache.New(time.Minute, 0))
	return NewQuotationService(rateSvc, processors.NewProjectionProcessor(), cache.New(time.Minute, 0))
}

func validInput() QuotationInput {
	return QuotationInput{
		UserID:           1,
		ProductType:      models.CapitalAppreciator,
		Term:             3,
		Principal:        decimal.RequireFromString("100000"),
		BoosterPercent:   decimal.RequireFromString("5"),
		RateMode:         models.RateModeExplicit,
		CommencementDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Client: models.Client{
			Name:    "J. Moran",
			Address: "4 Elm Park, Galway",
			Email:   "j.moran@example.com",
		},
		PreparedBy: models.PreparedBy{Name: "A. Whelan"},
	}
}

func TestCreateQuotation_PersistsAndProjects(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	q, rows, err := svc.CreateQuotation(validInput())
	require.NoError(t, err)
	require.NotNil(t, q)
	require.Len(t, rows, 3)

	assert.NotZero(t, q.ID)
	assert.NotZero(t, q.Client.ID)
	// Empty explicit schedule resolves from the default rate table.
	require.Len(t, q.RateSchedule, 3)
	assert.Equal(t, "11.75", q.RateSchedule[0].StringFixed(2))
	// Redemption date is commencement plus the term in years.
	assert.Equal(t, "2029-10-01", q.RedemptionDate.Format("2006-01-02"))

	assert.Equal(t, "105000.00", rows[0].OpeningCapital.StringFixed(2))
	assert.Equal(t, "146925.41", rows[2].ClosingCapital.StringFixed(2))

	loaded, err := svc.GetQuotation(1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, loaded.ID)
	assert.Equal(t, "J. Moran", loaded.Client.Name)
	assert.True(t, loaded.Principal.Equal(q.Principal))
	require.Len(t, loaded.RateSchedule, 3)
	assert.True(t, loaded.RateSchedule[2].Equal(decimal.RequireFromString("11.95")))
}

func TestCreateQuotation_SanitizesClientStrings(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	in := validInput()
	in.Client.Name = "<script>alert(1)</script>J. Moran"
	in.Client.Address = "4 Elm Park\x00, Galway"

	q, _, err := svc.CreateQuotation(in)
	require.NoError(t, err)
	assert.Equal(t, "J. Moran", q.Client.Name)
	assert.NotContains(t, q.Client.Address, "\x00")
}

func TestCreateQuotation_RejectsInvalidInput(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	tests := []struct {
		name    string
		mutate  func(in *QuotationInput)
		wantErr error
	}{
		{"bad product", func(in *QuotationInput) { in.ProductType = "PERPETUAL_BOND" }, ErrInvalidInput},
		{"bad term", func(in *QuotationInput) { in.Term = 2 }, ErrInvalidTerm},
		{"zero principal", func(in *QuotationInput) { in.Principal = decimal.Zero }, ErrInvalidInput},
		{"negative booster", func(in *QuotationInput) { in.BoosterPercent = decimal.RequireFromString("-1") }, ErrInvalidInput},
		{"schedule length mismatch", func(in *QuotationInput) {
			in.RateSchedule = []decimal.Decimal{decimal.RequireFromString("11.75")}
		}, ErrInvalidInput},
		{"income provider without frequency", func(in *QuotationInput) {
			in.ProductType = models.IncomeProvider
		}, ErrInvalidInput},
		{"missing commencement date", func(in *QuotationInput) { in.CommencementDate = time.Time{} }, ErrInvalidInput},
		{"missing client name", func(in *QuotationInput) { in.Client.Name = "  " }, ErrInvalidInput},
		{"unknown rate mode", func(in *QuotationInput) { in.RateMode = "GUESS" }, ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			q, rows, err := svc.CreateQuotation(in)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, q)
			assert.Nil(t, rows)
		})
	}
}

func TestCreateQuotation_BaseStepMode(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	in := validInput()
	in.RateMode = models.RateModeBaseStep
	in.BaseRate = decimal.RequireFromString("11.00")
	in.StepIncrement = decimal.RequireFromString("0.20")

	q, rows, err := svc.CreateQuotation(in)
	require.NoError(t, err)
	require.Len(t, q.RateSchedule, 3)
	assert.Equal(t, "11.00", q.RateSchedule[0].StringFixed(2))
	assert.Equal(t, "11.20", q.RateSchedule[1].StringFixed(2))
	assert.Equal(t, "11.40", q.RateSchedule[2].StringFixed(2))
	assert.Equal(t, "11.40", rows[2].Rate.StringFixed(2))
}

func TestGetQuotation_NotFound(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	_, err := svc.GetQuotation(1, 9999)
	require.ErrorIs(t, err, ErrQuotationNotFound)
}

func TestGetQuotation_ScopedToUser(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	q, _, err := svc.CreateQuotation(validInput())
	require.NoError(t, err)

	_, err = svc.GetQuotation(2, q.ID)
	require.ErrorIs(t, err, ErrQuotationNotFound)
}

func TestGetProjection_MatchesCreateResult(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	q, created, err := svc.CreateQuotation(validInput())
	require.NoError(t, err)

	got, err := svc.GetProjection(1, q.ID)
	require.NoError(t, err)
	require.Len(t, got, len(created))
	for i := range created {
		assert.True(t, got[i].ClosingCapital.Equal(created[i].ClosingCapital), "year %d", i+1)
	}
}

func TestListQuotations(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	list, err := svc.ListQuotations(1)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, _, err = svc.CreateQuotation(validInput())
	require.NoError(t, err)

	in := validInput()
	in.ProductType = models.IncomeProvider
	in.IncomeFrequency = models.FrequencyQuarterly
	_, _, err = svc.CreateQuotation(in)
	require.NoError(t, err)

	list, err = svc.ListQuotations(1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Another user's listing stays empty.
	list, err = svc.ListQuotations(2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteQuotation_RemovesAllRows(t *testing.T) {
	setupTestDB(t)
	svc := newTestQuotationService()

	q, _, err := svc.CreateQuotation(validInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuotation(1, q.ID))

	_, err = svc.GetQuotation(1, q.ID)
	require.ErrorIs(t, err, ErrQuotationNotFound)

	var clients int
	require.NoError(t, database.DB.QueryRow("SELECT COUNT(*) FROM clients").Scan(&clients))
	assert.Zero(t, clients)

	require.ErrorIs(t, svc.DeleteQuotation(1, q.ID), ErrQuotationNotFound)
}
