/*
Package factory provides JSON to Go contract template conversion.

PURPOSE:
  Converts JSON template definitions into document.Template ASTs and back.
  Officials edit contract wording through the admin UI; the JSON is stored
  as-is and parsed here every time a contract is rendered.

JSON SCHEMA:
  {
    "id": "spk-2025",
    "name": "SPK Mitra 2025",
    "opening":   "Pada hari ini {{tanggal_surat_terbilang}} ...",
    "party_one": "{{nama_pejabat}}, NIP {{nip_pejabat}} ...",
    "party_two": "{{nama_mitra}}, NIK {{nik_mitra}} ...",
    "agreement": "Bahwa PARA PIHAK sepakat ...",
    "articles": [
      {"number": 1, "title": "Ruang Lingkup", "body": "..."},
      {"number": 2, "body": "... {{total_honor}} ({{terbilang_honor}}) ..."}
    ],
    "closing": "... {{lampiran}}"
  }

  Each text field is split into one paragraph per line.

VALIDATION:
  - id and name are required
  - article numbers are positive and unique
  - at least one article
  Articles are sorted by number regardless of their order in the JSON.
  Unknown "{{tokens}}" are allowed and reported through Warnings.

USAGE:
  f := factory.NewTemplateFactory()
  tpl, err := f.ParseTemplate(body)
  data, err := f.Marshal(tpl)

SEE ALSO:
  - document/ast.go: Template type
  - contract/service.go: Loads stored templates through the factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/document"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TemplateJSON is the JSON representation of a contract template.
type TemplateJSON struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Opening   string        `json:"opening"`
	PartyOne  string        `json:"party_one"`
	PartyTwo  string        `json:"party_two"`
	Agreement string        `json:"agreement"`
	Articles  []ArticleJSON `json:"articles"`
	Closing   string        `json:"closing"`
}

// ArticleJSON represents one numbered article (Pasal).
type ArticleJSON struct {
	Number int    `json:"number"`
	Title  string `json:"title,omitempty"`
	Body   string `json:"body"`
}

// =============================================================================
// TEMPLATE FACTORY
// =============================================================================

// TemplateFactory converts JSON templates to ASTs.
type TemplateFactory struct{}

// NewTemplateFactory creates a new template factory.
func NewTemplateFactory() *TemplateFactory {
	return &TemplateFactory{}
}

// ParseTemplate parses JSON into a validated template.
func (f *TemplateFactory) ParseTemplate(data []byte) (document.Template, error) {
	var tj TemplateJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return document.Template{}, &core.InvalidArgumentError{Field: "template", Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return f.FromJSON(tj)
}

// Load parses a stored template record. The record ID wins over the ID in
// the JSON body.
func (f *TemplateFactory) Load(rec core.TemplateRecord) (document.Template, error) {
	tpl, err := f.ParseTemplate(rec.Body)
	if err != nil {
		return document.Template{}, fmt.Errorf("template %s: %w", rec.ID, err)
	}
	tpl.ID = rec.ID
	return tpl, nil
}

// FromJSON validates tj and converts it to document.Template.
func (f *TemplateFactory) FromJSON(tj TemplateJSON) (document.Template, error) {
	if err := f.Validate(tj); err != nil {
		return document.Template{}, err
	}

	tpl := document.Template{
		ID:        core.TemplateID(strings.TrimSpace(tj.ID)),
		Name:      strings.TrimSpace(tj.Name),
		Opening:   document.Parse(tj.Opening),
		PartyOne:  document.Parse(tj.PartyOne),
		PartyTwo:  document.Parse(tj.PartyTwo),
		Agreement: document.Parse(tj.Agreement),
		Closing:   document.Parse(tj.Closing),
	}
	for _, aj := range tj.Articles {
		tpl.Articles = append(tpl.Articles, document.Article{
			Number: aj.Number,
			Title:  document.ParseTitle(aj.Title),
			Body:   document.Parse(aj.Body),
		})
	}
	sort.Slice(tpl.Articles, func(i, j int) bool { return tpl.Articles[i].Number < tpl.Articles[j].Number })
	return tpl, nil
}

// Validate checks the structural rules of a template.
func (f *TemplateFactory) Validate(tj TemplateJSON) error {
	if strings.TrimSpace(tj.ID) == "" {
		return &core.InvalidArgumentError{Field: "template id", Reason: "is required"}
	}
	if strings.TrimSpace(tj.Name) == "" {
		return &core.InvalidArgumentError{Field: "template name", Reason: "is required"}
	}
	if len(tj.Articles) == 0 {
		return &core.InvalidArgumentError{Field: "articles", Reason: "at least one article is required"}
	}
	seen := make(map[int]bool, len(tj.Articles))
	for _, a := range tj.Articles {
		if a.Number <= 0 {
			return &core.InvalidArgumentError{Field: "article number", Value: fmt.Sprint(a.Number), Reason: "must be positive"}
		}
		if seen[a.Number] {
			return &core.InvalidArgumentError{Field: "article number", Value: fmt.Sprint(a.Number), Reason: "is duplicated"}
		}
		seen[a.Number] = true
	}
	return nil
}

// Warnings lists non-fatal issues: unknown tokens and a missing attachment marker.
func (f *TemplateFactory) Warnings(tpl document.Template) []string {
	var out []string
	for _, tok := range tpl.UnknownTokens() {
		out = append(out, fmt.Sprintf("unknown token {{%s}} will be printed verbatim", tok))
	}
	if !tpl.HasAttachment() {
		out = append(out, "template has no {{lampiran}} marker; the attachment table will not be printed")
	}
	return out
}

// ToJSON converts a template back to its JSON representation.
func (f *TemplateFactory) ToJSON(tpl document.Template) TemplateJSON {
	tj := TemplateJSON{
		ID:        string(tpl.ID),
		Name:      tpl.Name,
		Opening:   tpl.Opening.Source(),
		PartyOne:  tpl.PartyOne.Source(),
		PartyTwo:  tpl.PartyTwo.Source(),
		Agreement: tpl.Agreement.Source(),
		Closing:   tpl.Closing.Source(),
	}
	for _, a := range tpl.Articles {
		tj.Articles = append(tj.Articles, ArticleJSON{Number: a.Number, Title: a.Title.Source(), Body: a.Body.Source()})
	}
	return tj
}

// Marshal serializes a template to JSON.
func (f *TemplateFactory) Marshal(tpl document.Template) ([]byte, error) {
	return json.MarshalIndent(f.ToJSON(tpl), "", "  ")
}
