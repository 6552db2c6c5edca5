package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/document"
	"github.com/mitrastat/honor-engine/factory"
)

const sampleJSON = `{
  "id": "spk-2025",
  "name": "SPK Mitra 2025",
  "opening": "Pada hari ini {{tanggal_surat_terbilang}}",
  "party_one": "{{nama_pejabat}}",
  "party_two": "{{nama_mitra}}",
  "agreement": "Sepakat:",
  "articles": [
    {"number": 2, "title": "Honor", "body": "Sebesar {{total_honor}} {{typo}}"},
    {"number": 1, "body": "Ruang lingkup"}
  ],
  "closing": "Demikian\n{{lampiran}}"
}`

func TestParseTemplate(t *testing.T) {
	f := factory.NewTemplateFactory()

	tpl, err := f.ParseTemplate([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, core.TemplateID("spk-2025"), tpl.ID)
	require.Len(t, tpl.Articles, 2)
	assert.Equal(t, 1, tpl.Articles[0].Number, "articles are sorted by number")
	assert.Equal(t, "Honor", tpl.Articles[1].Title.Source())
	assert.Equal(t, document.Placeholder{Token: document.TokenTotalHonor}, tpl.Articles[1].Body[0][1])
	assert.True(t, tpl.HasAttachment())
	assert.Len(t, tpl.Closing, 2)
}

func TestParseTemplate_Validation(t *testing.T) {
	f := factory.NewTemplateFactory()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{`},
		{"missing id", `{"name":"x","articles":[{"number":1,"body":"a"}]}`},
		{"missing name", `{"id":"x","articles":[{"number":1,"body":"a"}]}`},
		{"no articles", `{"id":"x","name":"x"}`},
		{"zero number", `{"id":"x","name":"x","articles":[{"number":0,"body":"a"}]}`},
		{"duplicate number", `{"id":"x","name":"x","articles":[{"number":1,"body":"a"},{"number":1,"body":"b"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseTemplate([]byte(tt.json))
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}
}

func TestWarnings(t *testing.T) {
	f := factory.NewTemplateFactory()
	tpl, err := f.ParseTemplate([]byte(sampleJSON))
	require.NoError(t, err)

	warnings := f.Warnings(tpl)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "{{typo}}")

	tpl.Closing = document.Parse("Demikian")
	assert.Len(t, f.Warnings(tpl), 2)
}

func TestMarshal_RoundTrip(t *testing.T) {
	f := factory.NewTemplateFactory()
	original := document.DefaultTemplate("pajak")

	data, err := f.Marshal(original)
	require.NoError(t, err)

	parsed, err := f.ParseTemplate(data)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestLoad_RecordIDWins(t *testing.T) {
	f := factory.NewTemplateFactory()
	tpl, err := f.Load(core.TemplateRecord{ID: "stored-id", Body: []byte(sampleJSON)})
	require.NoError(t, err)
	assert.Equal(t, core.TemplateID("stored-id"), tpl.ID)

	_, err = f.Load(core.TemplateRecord{ID: "bad", Body: []byte("nope")})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
