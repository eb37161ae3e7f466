package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/database"
	"github.com/fortivest/quotations/backend/src/logger"
	"github.com/fortivest/quotations/backend/src/models"
)

const ckRateSet = "rate_set_%s_%d"

// Built-in default rate tables keyed by (product type, term). Used whenever
// no admin-configured set exists for the pair.
var defaultRates = map[models.ProductType]map[int][]string{
	models.CapitalAppreciator: {
		1: {"11.50"},
		3: {"11.75", "11.85", "11.95"},
		5: {"11.75", "11.85", "11.95", "12.05", "12.15"},
	},
	models.IncomeProvider: {
		1: {"10.25"},
		3: {"10.25", "10.35", "10.45"},
		5: {"10.25", "10.35", "10.45", "10.55", "10.65"},
	},
}

// RateStore abstracts the admin-mutable rate table. The resolver treats it
// as a read-mostly injected dependency.
type RateStore interface {
	GetRateSet(productType models.ProductType, term int) ([]decimal.Decimal, error)
	ListRateSets() ([]models.RateSet, error)
	SaveRateSet(set models.RateSet) error
}

// ErrRateSetNotFound signals that no configured override exists for a pair.
var ErrRateSetNotFound = errors.New("rate set not found")

type rateServiceImpl struct {
	store RateStore
	cache *cache.Cache
}

func NewRateService(store RateStore, rateCache *cache.Cache) RateService {
	return &rateServiceImpl{store: store, cache: rateCache}
}

// Resolve returns the ordered per-year schedule for the pair, preferring a
// configured override and falling back to the built-in defaults.
func (s *rateServiceImpl) Resolve(productType models.ProductType, term int) ([]decimal.Decimal, error) {
	if !models.TermSupported(term) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTerm, term)
	}

	cacheKey := fmt.Sprintf(ckRateSet, productType, term)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.([]decimal.Decimal), nil
	}

	rates, err := s.store.GetRateSet(productType, term)
	if err != nil {
		if !errors.Is(err, ErrRateSetNotFound) {
			return nil, fmt.Errorf("looking up configured rate set: %w", err)
		}
		rates = defaultSchedule(productType, term)
		logger.L.Debug("No configured rate set, using defaults", "productType", productType, "term", term)
	}

	s.cache.SetDefault(cacheKey, rates)
	return rates, nil
}

// ResolveStep derives the schedule from a base rate plus a fixed increment
// per year: rate for year i (1-based) = base + (i-1) * step.
func (s *rateServiceImpl) ResolveStep(baseRate, stepIncrement decimal.Decimal, term int) ([]decimal.Decimal, error) {
	if !models.TermSupported(term) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTerm, term)
	}
	rates := make([]decimal.Decimal, term)
	for i := 0; i < term; i++ {
		rates[i] = baseRate.Add(stepIncrement.Mul(decimal.NewFromInt(int64(i))))
	}
	return rates, nil
}

func (s *rateServiceImpl) ListRateSets() ([]models.RateSet, error) {
	return s.store.ListRateSets()
}

func (s *rateServiceImpl) SaveRateSet(set models.RateSet) error {
	if !set.ProductType.Valid() {
		return fmt.Errorf("%w: unknown product type %q", ErrInvalidInput, set.ProductType)
	}
	if !models.TermSupported(set.Term) {
		return fmt.Errorf("%w: got %d", ErrInvalidTerm, set.Term)
	}
	if len(set.Rates) != set.Term {
		return fmt.Errorf("%w: rate set must carry exactly %d rates, got %d", ErrInvalidInput, set.Term, len(set.Rates))
	}
	if err := s.store.SaveRateSet(set); err != nil {
		return err
	}
	s.cache.Delete(fmt.Sprintf(ckRateSet, set.ProductType, set.Term))
	return nil
}

func defaultSchedule(productType models.ProductType, term int) []decimal.Decimal {
	raw := defaultRates[productType][term]
	rates := make([]decimal.Decimal, len(raw))
	for i, r := range raw {
		rates[i] = decimal.RequireFromString(r)
	}
	return rates
}

// sqliteRateStore persists rate sets in the rate_sets table, rates as an
// ordered JSON array of strings.
type sqliteRateStore struct{}

func NewSQLiteRateStore() RateStore {
	return &sqliteRateStore{}
}

func (st *sqliteRateStore) GetRateSet(productType models.ProductType, term int) ([]decimal.Decimal, error) {
	var ratesJSON string
	err := database.DB.QueryRow(
		"SELECT rates FROM rate_sets WHERE product_type = ? AND term = ?",
		string(productType), term,
	).Scan(&ratesJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRateSetNotFound
		}
		return nil, err
	}
	return decodeRates(ratesJSON)
}

func (st *sqliteRateStore) ListRateSets() ([]models.RateSet, error) {
	rows, err := database.DB.Query("SELECT id, product_type, term, rates, updated_at FROM rate_sets ORDER BY product_type, term")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []models.RateSet
	for rows.Next() {
		var set models.RateSet
		var ratesJSON string
		if err := rows.Scan(&set.ID, &set.ProductType, &set.Term, &ratesJSON, &set.UpdatedAt); err != nil {
			logger.L.Error("Row scan error for rate set", "error", err)
			continue
		}
		set.Rates, err = decodeRates(ratesJSON)
		if err != nil {
			logger.L.Error("Stored rate set is malformed", "id", set.ID, "error", err)
			continue
		}
		sets = append(sets, set)
	}
	if sets == nil {
		sets = []models.RateSet{}
	}
	return sets, rows.Err()
}

func (st *sqliteRateStore) SaveRateSet(set models.RateSet) error {
	ratesJSON, err := encodeRates(set.Rates)
	if err != nil {
		return err
	}
	_, err = database.DB.Exec(`
		INSERT INTO rate_sets (product_type, term, rates, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(product_type, term) DO UPDATE SET rates = excluded.rates, updated_at = CURRENT_TIMESTAMP`,
		string(set.ProductType), set.Term, ratesJSON,
	)
	return err
}

func encodeRates(rates []decimal.Decimal) (string, error) {
	strs := make([]string, len(rates))
	for i, r := range rates {
		strs[i] = r.String()
	}
	b, err := json.Marshal(strs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRates(ratesJSON string) ([]decimal.Decimal, error) {
	var strs []string
	if err := json.Unmarshal([]byte(ratesJSON), &strs); err != nil {
		return nil, fmt.Errorf("decoding stored rates: %w", err)
	}
	rates := make([]decimal.Decimal, len(strs))
	for i, s := range strs {
		r, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("decoding stored rate %q: %w", s, err)
		}
		rates[i] = r
	}
	return rates, nil
}
