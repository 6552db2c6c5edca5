/*
Package contract assembles and renders a partner's work agreement for one
period.

PURPOSE:
  A partner receives one agreement per period listing every task they work
  on in that period. The agreement text comes from the period's template (or
  the built-in one), the attachment table from the partner's allocations,
  and the letter number from the period's numbering format.

RENDER FLOW:
  1. Contract setting of the period  (missing -> *core.TemplateNotReadyError)
  2. Partner, allocations, tasks, rates, positions (loaded concurrently)
  3. Attachment lines = income breakdown of the partner in the period
  4. Letter number    = format with {urut}, {bulan}, {tahun}
  5. Template         = stored template or document.DefaultTemplate
  6. document.Render

LETTER NUMBERS:
  {urut}   three-digit sequence: the partner's 1-based rank, by partner ID,
           among partners with allocations in the period
  {bulan}  Roman month of the letter date (VII)
  {tahun}  year of the letter date

  "{urut}/SPK/{bulan}/{tahun}" -> "007/SPK/VII/2025"

SEE ALSO:
  - document/render.go: Markup generation
  - income/accumulator.go: Breakdown and totals
*/
package contract

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/document"
	"github.com/mitrastat/honor-engine/factory"
	"github.com/mitrastat/honor-engine/income"
	"github.com/mitrastat/honor-engine/logger"
	"github.com/mitrastat/honor-engine/terbilang"
)

// DefaultLetterNumberFormat is used when a period's setting has no format.
const DefaultLetterNumberFormat = "{urut}/SPK/{bulan}/{tahun}"

type Service struct {
	store     core.Reader
	log       *logger.Logger
	templates *factory.TemplateFactory

	honorClause  string
	numberFormat string
}

type Option func(*Service)

// WithHonorClause sets the clause used when a setting has none.
func WithHonorClause(clause string) Option {
	return func(s *Service) {
		if clause != "" {
			s.honorClause = clause
		}
	}
}

// WithLetterNumberFormat sets the format used when a setting has none.
func WithLetterNumberFormat(format string) Option {
	return func(s *Service) {
		if format != "" {
			s.numberFormat = format
		}
	}
}

func NewService(store core.Reader, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:        store,
		log:          log,
		templates:    factory.NewTemplateFactory(),
		honorClause:  document.DefaultHonorClause,
		numberFormat: DefaultLetterNumberFormat,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is a rendered agreement with the data it was built from.
type Result struct {
	Partner      core.Partner
	Period       core.PeriodKey
	Setting      core.ContractSetting
	TemplateID   core.TemplateID
	Sequence     int
	LetterNumber string
	LetterDate   core.Date
	Lines        []document.AttachmentLine
	Total        core.Amount
	Document     document.Document
}

// =============================================================================
// LOADING
// =============================================================================

type agreement struct {
	setting     core.ContractSetting
	partner     core.Partner
	allocations []core.Allocation
	acc         income.Accumulator
	positions   map[core.PositionCode]string
	lines       []document.AttachmentLine
}

func (s *Service) prepare(ctx context.Context, partnerID core.PartnerID, key core.PeriodKey) (*agreement, error) {
	setting, err := s.store.GetContractSetting(ctx, key)
	if err != nil {
		return nil, err
	}

	a := &agreement{setting: setting}
	var (
		tasks     []core.Task
		rates     []core.PositionRate
		positions []core.Position
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a.partner, err = s.store.GetPartner(gctx, partnerID)
		return err
	})
	g.Go(func() (err error) {
		a.allocations, err = s.store.ListAllocations(gctx)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.store.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		rates, err = s.store.ListRates(gctx)
		return err
	})
	g.Go(func() (err error) {
		positions, err = s.store.ListPositions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.acc = income.Accumulator{Tasks: core.NewTaskIndex(tasks), Rates: core.NewRateTable(rates)}
	a.positions = make(map[core.PositionCode]string, len(positions))
	for _, p := range positions {
		a.positions[p.Code] = p.Name
	}
	a.lines = a.attachmentLines(partnerID, key)
	if len(a.lines) == 0 {
		return nil, fmt.Errorf("partner %s has no allocations in %s: %w", partnerID, key, core.ErrAllocationNotFound)
	}
	return a, nil
}

func (a *agreement) attachmentLines(partner core.PartnerID, key core.PeriodKey) []document.AttachmentLine {
	breakdown := a.acc.Breakdown(partner, key, a.allocations)
	lines := make([]document.AttachmentLine, 0, len(breakdown))
	for _, l := range breakdown {
		lines = append(lines, document.AttachmentLine{
			TaskID:       l.Task.ID,
			TaskName:     l.Task.Name,
			PositionCode: l.Allocation.Position,
			PositionName: a.positions[l.Allocation.Position],
			Start:        l.Task.Start,
			End:          l.Task.End,
			Volume:       l.Allocation.Volume,
			Unit:         l.Rate.Unit,
			Rate:         core.Rupiah(l.Rate.Rate),
			Total:        l.Earned,
			BudgetLine:   l.Rate.BudgetLine,
		})
	}
	return lines
}

// sequence ranks partner among the partners with allocations in the period.
func (a *agreement) sequence(partner core.PartnerID, key core.PeriodKey) int {
	seen := make(map[core.PartnerID]bool)
	var ids []core.PartnerID
	for _, al := range a.allocations {
		if !seen[al.PartnerID] && a.acc.InPeriod(al, key) {
			seen[al.PartnerID] = true
			ids = append(ids, al.PartnerID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return sort.Search(len(ids), func(i int) bool { return ids[i] >= partner }) + 1
}

// letterDate is the setting's issue date, or the earliest task start.
func (a *agreement) letterDate() core.Date {
	if !a.setting.IssueDate.IsZero() {
		return a.setting.IssueDate
	}
	d := a.lines[0].Start
	for _, l := range a.lines[1:] {
		if l.Start.Before(d) {
			d = l.Start
		}
	}
	return d
}

// =============================================================================
// RENDER
// =============================================================================

// Render builds the partner's agreement for the period.
func (s *Service) Render(ctx context.Context, partnerID core.PartnerID, key core.PeriodKey) (Result, error) {
	a, err := s.prepare(ctx, partnerID, key)
	if err != nil {
		return Result{}, err
	}

	tpl, err := s.template(ctx, a.setting)
	if err != nil {
		return Result{}, err
	}

	format := a.setting.LetterNumberFormat
	if format == "" {
		format = s.numberFormat
	}
	seq := a.sequence(partnerID, key)
	date := a.letterDate()
	total := document.LinesTotal(a.lines)

	vars := document.Variables{
		OfficialName:   a.setting.OfficialName,
		OfficialNIP:    a.setting.OfficialNIP,
		OfficialTitle:  a.setting.OfficialTitle,
		PartnerName:    a.partner.Name,
		PartnerNIK:     a.partner.NationalID,
		PartnerAddress: a.partner.Address,
		TotalHonor:     total,
		LetterDate:     date,
		LetterNumber:   LetterNumber(format, seq, date),
		BudgetYear:     key.Year,
	}
	doc, err := document.Render(tpl, vars, a.lines)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render agreement: %w", err)
	}

	s.log.Debug("agreement rendered",
		"partner_id", partnerID,
		"period", key.String(),
		"template_id", tpl.ID,
		"lines", len(a.lines),
		"total", total.String(),
	)
	return Result{
		Partner:      a.partner,
		Period:       key,
		Setting:      a.setting,
		TemplateID:   tpl.ID,
		Sequence:     seq,
		LetterNumber: vars.LetterNumber,
		LetterDate:   date,
		Lines:        a.lines,
		Total:        total,
		Document:     doc,
	}, nil
}

func (s *Service) template(ctx context.Context, setting core.ContractSetting) (document.Template, error) {
	clause := setting.HonorClause
	if clause == "" {
		clause = s.honorClause
	}
	if !setting.HasTemplate() {
		return document.DefaultTemplate(clause), nil
	}
	rec, err := s.store.GetTemplate(ctx, setting.TemplateID)
	if err != nil {
		return document.Template{}, err
	}
	return s.templates.Load(rec)
}

// LetterNumber expands {urut}, {bulan} and {tahun} in format.
func LetterNumber(format string, seq int, date core.Date) string {
	r := strings.NewReplacer(
		"{urut}", fmt.Sprintf("%03d", seq),
		"{bulan}", terbilang.RomanMonth(date.Month()),
		"{tahun}", strconv.Itoa(date.Year()),
	)
	return r.Replace(format)
}

// =============================================================================
// ATTACHMENT EXPORT
// =============================================================================

const attachmentSheet = "Lampiran"

// ExportAttachment writes the partner's attachment table for the period as
// an .xlsx workbook.
func (s *Service) ExportAttachment(ctx context.Context, partnerID core.PartnerID, key core.PeriodKey, w io.Writer) error {
	a, err := s.prepare(ctx, partnerID, key)
	if err != nil {
		return err
	}
	return writeAttachment(w, a.lines)
}

func writeAttachment(w io.Writer, lines []document.AttachmentLine) error {
	lines = append([]document.AttachmentLine(nil), lines...)
	document.SortLines(lines)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), attachmentSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := setRow(f, 1, toAny(document.AttachmentColumns)); err != nil {
		return err
	}
	for i, l := range lines {
		row := []any{
			i + 1,
			l.TaskName,
			l.PositionLabel(),
			terbilang.FormatDate(l.Start) + " - " + terbilang.FormatDate(l.End),
			l.Volume.InexactFloat64(),
			l.Unit,
			wholeRupiah(l.Rate),
			wholeRupiah(l.Total),
			l.BudgetLine,
		}
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}
	last := len(lines) + 2
	total := document.LinesTotal(lines)
	words, err := document.TotalWords(total)
	if err != nil {
		return err
	}
	if err := setRow(f, last, []any{"Jumlah", nil, nil, nil, nil, nil, nil, wholeRupiah(total)}); err != nil {
		return err
	}
	if err := setRow(f, last+1, []any{"Terbilang: " + words}); err != nil {
		return err
	}
	if err := f.SetCellStyle(attachmentSheet, "G2", fmt.Sprintf("H%d", last), money); err != nil {
		return fmt.Errorf("failed to style cells: %w", err)
	}
	if err := f.SetColWidth(attachmentSheet, "B", "D", 32); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// wholeRupiah rounds half up like the HTML attachment does.
func wholeRupiah(a core.Amount) int64 {
	return a.Value.Round(0).IntPart()
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(attachmentSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
