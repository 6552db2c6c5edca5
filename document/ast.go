/*
Package document merges contract templates with computed values.

PURPOSE:
  A contract is a fixed sequence of narrative parts plus numbered articles
  (Pasal). Officials edit the wording; the engine fills in names, amounts and
  dates and appends the attachment table listing the partner's assignments.

TEMPLATE STRUCTURE:
  Opening    "Pada hari ini ..."
  PartyOne   the issuing official (PIHAK PERTAMA)
  PartyTwo   the partner (PIHAK KEDUA)
  Agreement  the recital before the articles
  Articles   Pasal 1..n, each with an optional title and a body
  Closing    signatures, usually ending in {{lampiran}}

AST:
  Template -> Block -> Paragraph -> Node
  Node is one of Text, Placeholder, PageBreak, AttachmentMarker.
  Text parsed from text is plain text; Parse never produces markup.

PARSING:
  Each non-blank line is one paragraph. "{{token}}" is recognised for the
  tokens listed below. Anything else between braces stays Text verbatim, so
  a typo is visible in the output instead of silently vanishing.

SEE ALSO:
  - render.go: Substitution and attachment generation
  - default.go: Built-in template
  - factory/template.go: JSON <-> AST
*/
package document

import (
	"strings"

	"github.com/mitrastat/honor-engine/core"
)

// =============================================================================
// TOKENS
// =============================================================================

type Token string

const (
	TokenOfficialName     Token = "nama_pejabat"
	TokenOfficialNIP      Token = "nip_pejabat"
	TokenOfficialTitle    Token = "jabatan_pejabat"
	TokenPartnerName      Token = "nama_mitra"
	TokenPartnerNIK       Token = "nik_mitra"
	TokenPartnerAddress   Token = "alamat_mitra"
	TokenTotalHonor       Token = "total_honor"
	TokenHonorWords       Token = "terbilang_honor"
	TokenLetterDate       Token = "tanggal_surat"
	TokenLetterDateWords  Token = "tanggal_surat_terbilang"
	TokenLetterNumber     Token = "nomor_surat"
	TokenBudgetYear       Token = "tahun_anggaran"
	TokenPageBreak        Token = "page_break"
	TokenAttachmentMarker Token = "lampiran"
)

// ValueTokens are the tokens substituted with a single value.
var ValueTokens = []Token{
	TokenOfficialName, TokenOfficialNIP, TokenOfficialTitle,
	TokenPartnerName, TokenPartnerNIK, TokenPartnerAddress,
	TokenTotalHonor, TokenHonorWords,
	TokenLetterDate, TokenLetterDateWords, TokenLetterNumber,
	TokenBudgetYear,
}

var valueTokens = func() map[Token]bool {
	m := make(map[Token]bool, len(ValueTokens))
	for _, t := range ValueTokens {
		m[t] = true
	}
	return m
}()

func (t Token) String() string { return "{{" + string(t) + "}}" }

// =============================================================================
// AST
// =============================================================================

// Node is a piece of a paragraph.
type Node interface {
	node()
}

// Text is literal text. Token is set when the text is an unrecognised
// "{{...}}" kept verbatim.
type Text struct {
	Value string
	Token string
}

type Placeholder struct {
	Token Token
}

type PageBreak struct{}

type AttachmentMarker struct{}

func (Text) node()             {}
func (Placeholder) node()      {}
func (PageBreak) node()        {}
func (AttachmentMarker) node() {}

type Paragraph []Node

type Block []Paragraph

// Article is a numbered Pasal. Title is built with ParseTitle.
type Article struct {
	Number int
	Title  Paragraph
	Body   Block
}

type Template struct {
	ID        core.TemplateID
	Name      string
	Opening   Block
	PartyOne  Block
	PartyTwo  Block
	Agreement Block
	Articles  []Article
	Closing   Block
}

// =============================================================================
// PARSING
// =============================================================================

// Parse splits text into paragraphs (one per non-blank line) and tokenizes
// each paragraph.
func Parse(text string) Block {
	var b Block
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b = append(b, ParseParagraph(line))
	}
	return b
}

// ParseParagraph tokenizes one line. Adjacent text is merged into one Text node.
func ParseParagraph(line string) Paragraph {
	var p Paragraph
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			p = append(p, Text{Value: pending.String()})
			pending.Reset()
		}
	}

	rest := line
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			pending.WriteString(rest)
			break
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			pending.WriteString(rest)
			break
		}
		pending.WriteString(rest[:open])
		raw := rest[open : open+2+end+2]
		name := rest[open+2 : open+2+end]
		rest = rest[open+2+end+2:]

		switch tok := Token(name); {
		case tok == TokenPageBreak:
			flush()
			p = append(p, PageBreak{})
		case tok == TokenAttachmentMarker:
			flush()
			p = append(p, AttachmentMarker{})
		case valueTokens[tok]:
			flush()
			p = append(p, Placeholder{Token: tok})
		default:
			flush()
			p = append(p, Text{Value: raw, Token: name})
		}
	}
	flush()
	return p
}

// ParseTitle tokenizes an article title. Value placeholders are substituted
// like in a body; page break and attachment markers stay literal text.
func ParseTitle(line string) Paragraph {
	p := ParseParagraph(strings.TrimSpace(line))
	for i, n := range p {
		switch n.(type) {
		case PageBreak:
			p[i] = Text{Value: TokenPageBreak.String(), Token: string(TokenPageBreak)}
		case AttachmentMarker:
			p[i] = Text{Value: TokenAttachmentMarker.String(), Token: string(TokenAttachmentMarker)}
		}
	}
	return p
}

// =============================================================================
// INSPECTION
// =============================================================================

// Blocks returns every block of the template in document order.
func (t Template) Blocks() []Block {
	blocks := []Block{t.Opening, t.PartyOne, t.PartyTwo, t.Agreement}
	for _, a := range t.Articles {
		blocks = append(blocks, a.Body)
	}
	return append(blocks, t.Closing)
}

// UnknownTokens lists the unrecognised "{{...}}" names in document order,
// without duplicates.
func (t Template) UnknownTokens() []string {
	seen := make(map[string]bool)
	var out []string
	t.walk(func(n Node) {
		if txt, ok := n.(Text); ok && txt.Token != "" && !seen[txt.Token] {
			seen[txt.Token] = true
			out = append(out, txt.Token)
		}
	})
	return out
}

// HasAttachment reports whether the template contains {{lampiran}}.
func (t Template) HasAttachment() bool {
	found := false
	t.walk(func(n Node) {
		if _, ok := n.(AttachmentMarker); ok {
			found = true
		}
	})
	return found
}

func (t Template) walk(fn func(Node)) {
	visit := func(p Paragraph) {
		for _, n := range p {
			fn(n)
		}
	}
	blocks := func(bs ...Block) {
		for _, b := range bs {
			for _, p := range b {
				visit(p)
			}
		}
	}
	blocks(t.Opening, t.PartyOne, t.PartyTwo, t.Agreement)
	for _, a := range t.Articles {
		visit(a.Title)
		blocks(a.Body)
	}
	blocks(t.Closing)
}

// Source turns a block back into template text.
func (b Block) Source() string {
	lines := make([]string, 0, len(b))
	for _, p := range b {
		lines = append(lines, p.Source())
	}
	return strings.Join(lines, "\n")
}

// Source turns a paragraph back into template text.
func (p Paragraph) Source() string {
	var sb strings.Builder
	for _, n := range p {
		switch n := n.(type) {
		case Text:
			sb.WriteString(n.Value)
		case Placeholder:
			sb.WriteString(n.Token.String())
		case PageBreak:
			sb.WriteString(TokenPageBreak.String())
		case AttachmentMarker:
			sb.WriteString(TokenAttachmentMarker.String())
		}
	}
	return sb.String()
}
