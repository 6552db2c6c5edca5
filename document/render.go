package document

import (
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/terbilang"
)

// =============================================================================
// INPUTS
// =============================================================================

// Variables are the single values substituted into a template.
type Variables struct {
	OfficialName   string
	OfficialNIP    string
	OfficialTitle  string
	PartnerName    string
	PartnerNIK     string
	PartnerAddress string
	TotalHonor     core.Amount
	LetterDate     core.Date
	LetterNumber   string
	BudgetYear     int
}

// Values formats every value token. Amounts and dates are written in figures
// and in words.
func (v Variables) Values() (map[Token]string, error) {
	honorWords, err := terbilang.AmountToWords(v.TotalHonor)
	if err != nil {
		return nil, err
	}
	values := map[Token]string{
		TokenOfficialName:    v.OfficialName,
		TokenOfficialNIP:     v.OfficialNIP,
		TokenOfficialTitle:   v.OfficialTitle,
		TokenPartnerName:     v.PartnerName,
		TokenPartnerNIK:      v.PartnerNIK,
		TokenPartnerAddress:  v.PartnerAddress,
		TokenTotalHonor:      terbilang.FormatRupiah(v.TotalHonor),
		TokenHonorWords:      honorWords,
		TokenLetterNumber:    v.LetterNumber,
		TokenLetterDate:      terbilang.FormatDate(v.LetterDate),
		TokenLetterDateWords: "",
		TokenBudgetYear:      "",
	}
	if !v.LetterDate.IsZero() {
		words, err := terbilang.DateToWords(v.LetterDate)
		if err != nil {
			return nil, err
		}
		values[TokenLetterDateWords] = words
	}
	if v.BudgetYear > 0 {
		values[TokenBudgetYear] = strconv.Itoa(v.BudgetYear)
	}
	return values, nil
}

// AttachmentLine is one row of the attachment table.
type AttachmentLine struct {
	TaskID       core.TaskID
	TaskName     string
	PositionCode core.PositionCode
	PositionName string
	Start        core.Date
	End          core.Date
	Volume       decimal.Decimal
	Unit         string
	Rate         core.Amount
	Total        core.Amount
	BudgetLine   string
}

// SortLines orders lines by task start date, then task ID, then position.
func SortLines(lines []AttachmentLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.TaskID != b.TaskID {
			return a.TaskID < b.TaskID
		}
		return a.PositionCode < b.PositionCode
	})
}

// LinesTotal sums the line totals.
func LinesTotal(lines []AttachmentLine) core.Amount {
	total := core.ZeroRupiah()
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total
}

// =============================================================================
// OUTPUT
// =============================================================================

// Document is a rendered contract: an HTML fragment for the PDF renderer.
type Document struct {
	HTML          string
	PageBreaks    int
	HasAttachment bool
}

// Render substitutes vars into tpl and generates the attachment table at the
// first {{lampiran}}. Identical inputs produce byte-identical output.
func Render(tpl Template, vars Variables, lines []AttachmentLine) (Document, error) {
	values, err := vars.Values()
	if err != nil {
		return Document{}, err
	}
	sorted := append([]AttachmentLine(nil), lines...)
	SortLines(sorted)

	r := &renderer{values: values, lines: sorted, letterNumber: vars.LetterNumber}
	r.out.WriteString(`<article class="contract">` + "\n")
	r.part("opening", tpl.Opening)
	r.part("party-one", tpl.PartyOne)
	r.part("party-two", tpl.PartyTwo)
	r.part("agreement", tpl.Agreement)
	for _, a := range tpl.Articles {
		r.article(a)
	}
	r.part("closing", tpl.Closing)
	r.out.WriteString("</article>\n")

	if r.err != nil {
		return Document{}, r.err
	}
	return Document{HTML: r.out.String(), PageBreaks: r.breaks, HasAttachment: r.attached}, nil
}

type renderer struct {
	out          strings.Builder
	values       map[Token]string
	lines        []AttachmentLine
	letterNumber string
	attached     bool
	breaks       int
	err          error
}

func (r *renderer) part(class string, b Block) {
	if len(b) == 0 {
		return
	}
	r.out.WriteString(`<section class="part ` + class + `">` + "\n")
	r.block(b)
	r.out.WriteString("</section>\n")
}

func (r *renderer) article(a Article) {
	r.out.WriteString(`<section class="article">` + "\n")
	r.out.WriteString("<h3>Pasal " + strconv.Itoa(a.Number) + "</h3>\n")
	if title := r.inline(a.Title); strings.TrimSpace(title) != "" {
		r.out.WriteString("<h4>" + title + "</h4>\n")
	}
	r.block(a.Body)
	r.out.WriteString("</section>\n")
}

func (r *renderer) block(b Block) {
	for _, p := range b {
		r.paragraph(p)
	}
}

// paragraph writes text runs as <p> elements; markers end the current run.
func (r *renderer) paragraph(p Paragraph) {
	var run strings.Builder
	flush := func() {
		if strings.TrimSpace(run.String()) != "" {
			r.out.WriteString("<p>" + run.String() + "</p>\n")
		}
		run.Reset()
	}
	for _, n := range p {
		switch n := n.(type) {
		case Text, Placeholder:
			run.WriteString(r.value(n))
		case PageBreak:
			flush()
			r.pageBreak()
		case AttachmentMarker:
			flush()
			if !r.attached {
				r.attached = true
				r.pageBreak()
				r.attachment()
			}
		}
	}
	flush()
}

// value returns the escaped text of a Text or Placeholder node.
func (r *renderer) value(n Node) string {
	switch n := n.(type) {
	case Text:
		return html.EscapeString(n.Value)
	case Placeholder:
		return html.EscapeString(r.values[n.Token])
	}
	return ""
}

// inline renders a heading. Markers are ignored there.
func (r *renderer) inline(p Paragraph) string {
	var sb strings.Builder
	for _, n := range p {
		sb.WriteString(r.value(n))
	}
	return sb.String()
}

func (r *renderer) pageBreak() {
	r.breaks++
	r.out.WriteString(`<div class="page-break"></div>` + "\n")
}

// AttachmentColumns are the headers of the attachment table.
var AttachmentColumns = []string{
	"No", "Uraian Tugas", "Jabatan", "Jangka Waktu", "Target Pekerjaan",
	"Satuan", "Harga Satuan", "Nilai Perjanjian", "Beban Anggaran",
}

func (r *renderer) attachment() {
	total := LinesTotal(r.lines)
	words, err := TotalWords(total)
	if err != nil {
		r.err = err
		return
	}

	w := &r.out
	w.WriteString(`<section class="attachment">` + "\n")
	w.WriteString("<h3>LAMPIRAN</h3>\n")
	if r.letterNumber != "" {
		w.WriteString("<p>Nomor: " + html.EscapeString(r.letterNumber) + "</p>\n")
	}
	w.WriteString("<p>Daftar Uraian Tugas, Jangka Waktu, Target Pekerjaan dan Nilai Perjanjian</p>\n")
	w.WriteString("<table>\n<thead>\n<tr>")
	for _, c := range AttachmentColumns {
		w.WriteString("<th>" + c + "</th>")
	}
	w.WriteString("</tr>\n</thead>\n<tbody>\n")

	for i, l := range r.lines {
		cells := []string{
			strconv.Itoa(i + 1),
			l.TaskName,
			l.PositionLabel(),
			terbilang.FormatDate(l.Start) + " - " + terbilang.FormatDate(l.End),
			terbilang.FormatDecimal(l.Volume),
			l.Unit,
			terbilang.FormatRupiah(l.Rate),
			terbilang.FormatRupiah(l.Total),
			l.BudgetLine,
		}
		w.WriteString("<tr>")
		for _, c := range cells {
			w.WriteString("<td>" + html.EscapeString(c) + "</td>")
		}
		w.WriteString("</tr>\n")
	}

	w.WriteString(`<tr class="total"><td colspan="7">Jumlah</td><td>` +
		html.EscapeString(terbilang.FormatRupiah(total)) + "</td><td></td></tr>\n")
	w.WriteString(`<tr class="terbilang"><td colspan="9">Terbilang: ` +
		html.EscapeString(words) + "</td></tr>\n")
	w.WriteString("</tbody>\n</table>\n</section>\n")
}

// TotalWords spells an attachment total as the sentence printed under the
// table: "Satu juta tiga ratus tujuh puluh lima ribu rupiah".
func TotalWords(total core.Amount) (string, error) {
	words, err := terbilang.AmountToWords(total)
	if err != nil {
		return "", err
	}
	return capitalize(words), nil
}

// PositionLabel is the position name, or its code when unnamed.
func (l AttachmentLine) PositionLabel() string {
	if l.PositionName != "" {
		return l.PositionName
	}
	return string(l.PositionCode)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
