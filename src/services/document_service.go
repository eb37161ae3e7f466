package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/config"
	"github.com/fortivest/quotations/backend/src/database"
	"github.com/fortivest/quotations/backend/src/logger"
	"github.com/fortivest/quotations/backend/src/models"
	"github.com/fortivest/quotations/backend/src/pdf"
	"github.com/fortivest/quotations/backend/src/processors"
	"github.com/fortivest/quotations/backend/src/utils"
)

const documentMimeType = "application/pdf"

type documentServiceImpl struct {
	projectionProcessor *processors.ProjectionProcessor
}

func NewDocumentService(projectionProcessor *processors.ProjectionProcessor) DocumentService {
	return &documentServiceImpl{projectionProcessor: projectionProcessor}
}

// Generate composes the quotation document in memory. Nothing is persisted
// here; a failed run leaves no trace.
func (s *documentServiceImpl) Generate(q *models.Quotation, rows []models.ProjectionRow, style DocumentStyle) (*GeneratedDocument, error) {
	c := newComposer(q, rows, s.projectionProcessor)
	if err := c.loadLogo(); err != nil {
		return nil, err
	}

	switch style {
	case StyleSummary:
		c.composeSummary()
	default:
		c.composeProposal()
	}

	name := fmt.Sprintf("%s - %s.pdf", productDisplayName(q.ProductType), q.Client.Name)
	return &GeneratedDocument{
		Bytes:        c.doc.Bytes(),
		OriginalName: name,
		MimeType:     documentMimeType,
	}, nil
}

// Persist writes the bytes under a collision-resistant name and inserts the
// metadata record. The file is removed again if the insert fails, so a
// metadata row never points at nothing and no orphan is left on failure.
func (s *documentServiceImpl) Persist(q *models.Quotation, doc *GeneratedDocument) (*models.DocumentRecord, error) {
	if err := os.MkdirAll(config.Cfg.DocumentStorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating document storage dir: %w", err)
	}

	// Timestamp plus random suffix: names never collide, files are never
	// overwritten, so concurrent generations need no locking.
	name := fmt.Sprintf("%s_%s.pdf", time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	path := filepath.Join(config.Cfg.DocumentStorageDir, name)

	if err := os.WriteFile(path, doc.Bytes, 0o644); err != nil {
		return nil, fmt.Errorf("writing document file: %w", err)
	}

	record := &models.DocumentRecord{
		Name:         name,
		OriginalName: doc.OriginalName,
		Size:         int64(len(doc.Bytes)),
		MimeType:     doc.MimeType,
		QuotationID:  q.ID,
		ClientID:     q.Client.ID,
		UserID:       q.UserID,
		CreatedAt:    time.Now(),
	}

	res, err := database.DB.Exec(`
		INSERT INTO documents (name, original_name, size, mime_type, quotation_id, client_id, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Name, record.OriginalName, record.Size, record.MimeType,
		record.QuotationID, record.ClientID, record.UserID,
	)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			logger.L.Error("Failed to remove orphaned document file", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("inserting document record: %w", err)
	}
	record.ID, _ = res.LastInsertId()

	logger.L.Info("Document persisted", "name", name, "size", record.Size, "quotationID", q.ID)
	return record, nil
}

// --- Composer ---

// Fixed typography for quotation documents. Vertical advances are explicit
// line spacings, not derived from font metrics.
const (
	titleSize   = 20.0
	headingSize = 13.0
	bodySize    = 9.5
	smallSize   = 7.5

	bodyLeading    = 13.0
	headingLeading = 18.0
	sectionGap     = 14.0
)

// composer assembles one document for one quotation. It is the only place
// aware of the product-type branching; the pdf package below it is fully
// product-agnostic.
type composer struct {
	q    *models.Quotation
	rows []models.ProjectionRow
	proc *processors.ProjectionProcessor

	doc      *pdf.Document
	flow     *pdf.PageFlow
	logoName string
	logoW    float64
	logoH    float64
}

func newComposer(q *models.Quotation, rows []models.ProjectionRow, proc *processors.ProjectionProcessor) *composer {
	c := &composer{q: q, rows: rows, proc: proc}
	c.doc = pdf.NewDocument(pdf.Info{
		Title:    fmt.Sprintf("%s Quotation", productDisplayName(q.ProductType)),
		Author:   config.Cfg.CompanyName,
		Subject:  fmt.Sprintf("Quotation for %s", q.Client.Name),
		Producer: config.Cfg.CompanyName,
	})
	return c
}

// loadLogo reads the configured logo asset. A configured-but-unreadable logo
// is fatal to the generation; no logo configured falls back to the text
// wordmark.
func (c *composer) loadLogo() error {
	if config.Cfg.LogoPath == "" {
		return nil
	}
	data, err := os.ReadFile(config.Cfg.LogoPath)
	if err != nil {
		return fmt.Errorf("%w: logo %s: %v", ErrAssetMissing, config.Cfg.LogoPath, err)
	}
	name, w, h, err := c.doc.RegisterJPEG(data)
	if err != nil {
		return fmt.Errorf("%w: logo %s: %v", ErrAssetMissing, config.Cfg.LogoPath, err)
	}
	c.logoName = name
	// Scale to a 90pt wide box preserving aspect ratio.
	c.logoW = 90
	c.logoH = 90 * float64(h) / float64(w)
	return nil
}

// chrome draws the letterhead and legal footer repeated on every page.
func (c *composer) chrome(p *pdf.Page, geom pdf.Geometry) {
	top := geom.PageHeight - 20

	if c.logoName != "" {
		p.Image(c.logoName, geom.MarginLeft, top-c.logoH, c.logoW, c.logoH)
	} else {
		p.Text(geom.MarginLeft, top-14, pdf.HelveticaBold, 14, config.Cfg.CompanyName)
	}

	rightX := geom.PageWidth - geom.MarginRight
	addr := config.Cfg.CompanyAddress
	p.Text(rightX-pdf.Helvetica.TextWidth(addr, smallSize), top-8, pdf.Helvetica, smallSize, addr)
	contact := config.Cfg.CompanyPhone + "  " + config.Cfg.CompanyEmail
	p.Text(rightX-pdf.Helvetica.TextWidth(contact, smallSize), top-18, pdf.Helvetica, smallSize, contact)

	p.SetLineWidth(0.8)
	p.Line(geom.MarginLeft, top-26, rightX, top-26)

	footer := config.Cfg.CompanyRegNo + ". This quotation is illustrative only and does not constitute advice."
	p.Text(geom.MarginLeft, geom.MarginBottom-22, pdf.Helvetica, smallSize, footer)
	p.Line(geom.MarginLeft, geom.MarginBottom-10, rightX, geom.MarginBottom-10)
}

// composeProposal builds the canonical full document. Section order differs
// by product variant.
func (c *composer) composeProposal() {
	geom := pdf.A4()
	geom.MarginTop = 70 // room for the letterhead
	c.flow = pdf.NewPageFlow(c.doc, geom, c.chrome)

	c.coverPage()

	c.flow.NewPage()
	switch c.q.ProductType {
	case models.CapitalAppreciator:
		c.summarySection()
		c.projectionSection()
		c.conditionsSection()
		c.feeSection()
		c.signatureSection()
	case models.IncomeProvider:
		c.summarySection()
		c.incomeScheduleNote()
		c.projectionSection()
		c.feeSection()
		c.conditionsSection()
		c.signatureSection()
	}
}

// composeSummary builds the legacy short form: summary fields and the
// projection table only, no cover, conditions or signature block.
func (c *composer) composeSummary() {
	geom := pdf.A4()
	geom.MarginTop = 70
	c.flow = pdf.NewPageFlow(c.doc, geom, c.chrome)

	c.flow.DrawText(fmt.Sprintf("%s Quotation", productDisplayName(c.q.ProductType)), pdf.HelveticaBold, titleSize, 26, false)
	c.flow.Advance(sectionGap)
	c.summarySection()
	c.projectionSection()
}

func (c *composer) coverPage() {
	f := c.flow

	f.Advance(160)
	f.DrawTextCentered(productDisplayName(c.q.ProductType), pdf.HelveticaBold, titleSize+6, 30)
	f.DrawTextCentered("Investment Quotation", pdf.Helvetica, titleSize-4, 24)

	f.Advance(50)
	f.DrawTextCentered("Prepared for", pdf.Helvetica, bodySize, bodyLeading)
	f.DrawTextCentered(c.q.Client.Name, pdf.HelveticaBold, headingSize, headingLeading)
	if c.q.Client.Address != "" {
		f.DrawTextCentered(c.q.Client.Address, pdf.Helvetica, bodySize, bodyLeading)
	}

	f.Advance(40)
	f.DrawTextCentered(fmt.Sprintf("Commencing %s", c.q.CommencementDate.Format("2 January 2006")), pdf.Helvetica, bodySize, bodyLeading)
	f.DrawTextCentered(fmt.Sprintf("Prepared by %s on %s", c.q.PreparedBy.Name, time.Now().Format("2 January 2006")), pdf.Helvetica, bodySize, bodyLeading)
}

func (c *composer) heading(text string) {
	f := c.flow
	// Keep a heading with at least two body lines below it.
	f.EnsureSpace(headingLeading + 2*bodyLeading)
	f.Advance(headingLeading)
	f.Page().Text(f.ContentLeft(), f.Y(), pdf.HelveticaBold, headingSize, text)
	f.Advance(6)
}

func (c *composer) summarySection() {
	c.heading("Investment Summary")

	boosted := c.q.Principal.Mul(decimal.NewFromInt(1).Add(c.q.BoosterPercent.Div(decimal.NewFromInt(100))))
	maturity := c.proc.MaturityValue(processors.ProjectionInput{
		ProductType: c.q.ProductType,
		Principal:   c.q.Principal,
	}, c.rows)

	pairs := [][2]string{
		{"Product", productDisplayName(c.q.ProductType)},
		{"Investment Amount", utils.FormatCurrency(c.q.Principal)},
		{"Booster Allocation", utils.FormatPercent(c.q.BoosterPercent)},
		{"Allocated Capital", utils.FormatCurrency(boosted)},
		{"Term", fmt.Sprintf("%d years", c.q.Term)},
		{"Commencement Date", c.q.CommencementDate.Format("02/01/2006")},
		{"Redemption Date", c.q.RedemptionDate.Format("02/01/2006")},
	}
	switch c.q.ProductType {
	case models.CapitalAppreciator:
		pairs = append(pairs,
			[2]string{"Income Treatment", "Reinvested annually (compounding)"},
			[2]string{"Projected Maturity Value", utils.FormatCurrency(maturity)},
		)
	case models.IncomeProvider:
		pairs = append(pairs,
			[2]string{"Income Allocation", frequencyDisplayName(c.q.IncomeFrequency)},
			[2]string{"Capital Returned at Term End", utils.FormatCurrency(maturity)},
			[2]string{"Total Projected Income", utils.FormatCurrency(c.proc.TotalIncome(c.rows))},
		)
	}

	cols := []pdf.Column{
		{Width: 200},
		{Width: c.flow.ContentWidth() - 200, Align: pdf.AlignRight},
	}
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p[0], p[1]}
	}
	opts := pdf.DefaultTableOptions()
	opts.HeaderFill = nil
	c.flow.DrawTable(c.flow.ContentLeft(), cols, rows, opts)
	c.flow.Advance(sectionGap)
}

func (c *composer) incomeScheduleNote() {
	per := periodsPerYear(c.q.IncomeFrequency)
	text := fmt.Sprintf(
		"Income is allocated %s. Each year's projected income is divided equally across the %d allocation dates in that year and paid to your nominated account. Capital is not drawn down by income allocations.",
		frequencyAdverb(c.q.IncomeFrequency), per)
	c.flow.DrawText(text, pdf.Helvetica, bodySize, bodyLeading, true)
	c.flow.Advance(sectionGap)
}

func (c *composer) projectionSection() {
	c.heading("Projected Income and Capital")

	f := c.flow
	w := f.ContentWidth()

	var cols []pdf.Column
	var rows [][]string

	switch c.q.ProductType {
	case models.CapitalAppreciator:
		cols = []pdf.Column{
			{Width: w * 0.10, Header: "Year", Align: pdf.AlignCenter},
			{Width: w * 0.25, Header: "Opening Capital", Align: pdf.AlignRight},
			{Width: w * 0.15, Header: "Annualised", Align: pdf.AlignCenter},
			{Width: w * 0.25, Header: "Income", Align: pdf.AlignRight},
			{Width: w * 0.25, Header: "Closing Capital", Align: pdf.AlignRight},
		}
		for _, r := range c.rows {
			rows = append(rows, []string{
				fmt.Sprintf("%d", r.Year),
				utils.FormatCurrency(r.OpeningCapital),
				utils.FormatPercent(r.Rate),
				utils.FormatCurrency(r.IncomeAmount),
				utils.FormatCurrency(r.ClosingCapital),
			})
		}
	case models.IncomeProvider:
		per := periodsPerYear(c.q.IncomeFrequency)
		cols = []pdf.Column{
			{Width: w * 0.10, Header: "Year", Align: pdf.AlignCenter},
			{Width: w * 0.24, Header: "Capital", Align: pdf.AlignRight},
			{Width: w * 0.14, Header: "Rate", Align: pdf.AlignCenter},
			{Width: w * 0.26, Header: "Annual Income", Align: pdf.AlignRight},
			{Width: w * 0.26, Header: perIncomeHeader(c.q.IncomeFrequency), Align: pdf.AlignRight},
		}
		for _, r := range c.rows {
			perAmount := r.IncomeAmount.Div(decimal.NewFromInt(int64(per)))
			rows = append(rows, []string{
				fmt.Sprintf("%d", r.Year),
				utils.FormatCurrency(r.OpeningCapital),
				utils.FormatPercent(r.Rate),
				utils.FormatCurrency(r.IncomeAmount),
				utils.FormatCurrency(perAmount),
			})
		}
	}

	shade := pdf.RGB{R: 0.95, G: 0.95, B: 0.95}
	opts := pdf.DefaultTableOptions()
	opts.RowFill = &shade
	f.DrawTable(f.ContentLeft(), cols, rows, opts)

	f.Advance(bodyLeading)
	f.DrawText("Projected figures assume the quoted rates apply for the full term and are rounded for display. Intermediate calculations are carried at full precision.", pdf.Helvetica, smallSize, 10, false)
	f.Advance(sectionGap)
}

var conditionParagraphs = []string{
	"This quotation is valid for 30 days from the date of preparation. Rates quoted are those applying at the date of preparation and may be revised for quotations accepted after the validity period. Acceptance is subject to receipt of cleared funds and completed application documentation on or before the commencement date shown.",
	"The booster allocation, where applicable, is applied once to the amount invested before the first year's projection and forms part of the allocated capital. It is not available for withdrawal separately from the capital to which it is allocated.",
	"Early redemption before the end of the selected term may be permitted at the absolute discretion of the company and will be subject to the early redemption charges set out in the fee schedule. The value available on early redemption may be less than the amount originally invested.",
	"Projected values are illustrations only. They are calculated by applying the quoted annual rates to the allocated capital for each year of the term and are not a guarantee of future performance. Where income is reinvested, each year's income is added to capital before the following year's rate is applied.",
	"This document does not constitute investment, legal or tax advice. Prospective investors should satisfy themselves as to the suitability of the product for their circumstances and should obtain independent advice where in doubt.",
}

func (c *composer) conditionsSection() {
	c.heading("Conditions")
	for _, para := range conditionParagraphs {
		c.flow.DrawText(para, pdf.Helvetica, bodySize, bodyLeading, true)
		c.flow.Advance(bodyLeading * 0.6)
	}
	c.flow.Advance(sectionGap - bodyLeading*0.6)
}

func (c *composer) feeSection() {
	c.heading("Fees and Charges")

	f := c.flow
	w := f.ContentWidth()
	cols := []pdf.Column{
		{Width: w * 0.55, Header: "Charge"},
		{Width: w * 0.45, Header: "Amount", Align: pdf.AlignRight},
	}
	rows := [][]string{
		{"Establishment fee (deducted from initial investment)", "1.50%"},
		{"Annual management charge", "1.20% of capital"},
		{"Income allocation fee", "Nil"},
	}
	f.DrawTable(f.ContentLeft(), cols, rows, pdf.DefaultTableOptions())
	f.Advance(bodyLeading)

	cols = []pdf.Column{
		{Width: w * 0.55, Header: "Early redemption during year"},
		{Width: w * 0.45, Header: "Charge on amount redeemed", Align: pdf.AlignRight},
	}
	rows = [][]string{
		{"Year 1", "5.00%"},
		{"Year 2", "4.00%"},
		{"Year 3", "3.00%"},
		{"Year 4", "2.00%"},
		{"Year 5 and later", "1.00%"},
	}
	f.DrawTable(f.ContentLeft(), cols, rows, pdf.DefaultTableOptions())
	f.Advance(sectionGap)
}

func (c *composer) signatureSection() {
	f := c.flow
	// The whole block moves to a fresh page rather than splitting.
	f.EnsureSpace(140)

	c.heading("Acceptance")
	f.DrawText("I confirm that I have read and accept the conditions of this quotation and instruct the company to proceed on the basis set out above.", pdf.Helvetica, bodySize, bodyLeading, true)
	f.Advance(36)

	y := f.Y()
	left := f.ContentLeft()
	mid := left + f.ContentWidth()/2
	page := f.Page()
	page.SetLineWidth(0.6)
	page.Line(left, y, left+180, y)
	page.Line(mid+40, y, mid+180, y)
	page.Text(left, y-12, pdf.Helvetica, smallSize, "Signature of investor")
	page.Text(mid+40, y-12, pdf.Helvetica, smallSize, "Date")
	f.Advance(40)

	y = f.Y()
	page.Line(left, y, left+180, y)
	page.Text(left, y-12, pdf.Helvetica, smallSize, fmt.Sprintf("For and on behalf of %s", config.Cfg.CompanyName))
}

func productDisplayName(p models.ProductType) string {
	if p == models.IncomeProvider {
		return "Income Provider"
	}
	return "Capital Appreciator"
}

func frequencyDisplayName(f models.IncomeFrequency) string {
	switch f {
	case models.FrequencyMonthly:
		return "Monthly"
	case models.FrequencyQuarterly:
		return "Quarterly"
	default:
		return "Annually"
	}
}

func frequencyAdverb(f models.IncomeFrequency) string {
	switch f {
	case models.FrequencyMonthly:
		return "monthly"
	case models.FrequencyQuarterly:
		return "quarterly"
	default:
		return "annually"
	}
}

func perIncomeHeader(f models.IncomeFrequency) string {
	switch f {
	case models.FrequencyMonthly:
		return "Monthly Income"
	case models.FrequencyQuarterly:
		return "Quarterly Income"
	default:
		return "Annual Allocation"
	}
}

func periodsPerYear(f models.IncomeFrequency) int {
	switch f {
	case models.FrequencyMonthly:
		return 12
	case models.FrequencyQuarterly:
		return 4
	default:
		return 1
	}
}
