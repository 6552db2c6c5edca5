package importer

import "strings"

// Column declares one logical column and the header texts that name it.
// Synonyms are matched case-insensitively after trimming.
type Column struct {
	Key      string
	Synonyms []string
}

// Headers maps column keys to sheet indexes. A missing column has index -1.
type Headers map[string]int

// ResolveHeaders finds each column in the header row. Synonyms are tried in
// order and the first one present wins.
func ResolveHeaders(header []string, columns []Column) Headers {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := positions[key]; !dup && key != "" {
			positions[key] = i
		}
	}

	out := make(Headers, len(columns))
	for _, c := range columns {
		out[c.Key] = -1
		for _, syn := range c.Synonyms {
			if i, ok := positions[normalizeHeader(syn)]; ok {
				out[c.Key] = i
				break
			}
		}
	}
	return out
}

// Has reports whether the column was found.
func (h Headers) Has(key string) bool {
	i, ok := h[key]
	return ok && i >= 0
}

// Missing returns the keys that were not found, in column order.
func (h Headers) Missing(columns []Column) []string {
	var out []string
	for _, c := range columns {
		if !h.Has(c.Key) {
			out = append(out, c.Key)
		}
	}
	return out
}

// Get returns the trimmed cell of the column, or "" when the column is
// missing or the row is short.
func (h Headers) Get(row []string, key string) string {
	i, ok := h[key]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
