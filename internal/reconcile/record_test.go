package reconcile

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, body string) *model.ApplicableRuleRecord {
	t.Helper()
	var r model.ApplicableRuleRecord
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	return &r
}

func TestURNShortName(t *testing.T) {
	assert.Equal(t, "Lozen", URNShortName("nl.imow-ws0636.activiteit.Lozen"))
	assert.Equal(t, "plain", URNShortName("plain"))
	assert.Equal(t, "", URNShortName(""))
}

func TestWorkItems(t *testing.T) {
	p := &model.ActivityPayload{Links: &model.ActivityLinks{WorkItems: []model.Link{
		{Href: "https://api.test/werkzaamheden/abc"},
		{Href: "https://api.test/werkzaamheden/def"},
	}}}
	assert.Equal(t, "abc, def", WorkItems(p))

	assert.Equal(t, "", WorkItems(&model.ActivityPayload{}))
	assert.Equal(t, "", WorkItems(&model.ActivityPayload{Links: &model.ActivityLinks{}}))
}

func TestLastChangeDate(t *testing.T) {
	r := decodeRecord(t, `{"_embedded":{"toepasbareRegels":[{"laatsteWijzigingDatum":"01-02-2024"},{"laatsteWijzigingDatum":"x"}]}}`)
	assert.Equal(t, "01-02-2024", LastChangeDate(r))

	assert.Equal(t, "", LastChangeDate(decodeRecord(t, `{"_embedded":{"toepasbareRegels":[]}}`)))
	assert.Equal(t, "", LastChangeDate(decodeRecord(t, `{}`)))
	assert.Equal(t, "", LastChangeDate(decodeRecord(t, `{"_embedded":{"toepasbareRegels":[{}]}}`)))
}

func TestDocumentHref(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantHref  string
		wantField string
	}{
		{
			name:     "present",
			body:     `{"_embedded":{"toepasbareRegels":[{"_links":{"sttrBestand":{"href":"https://api.test/toepasbareRegels/42/sttr"}}}]}}`,
			wantHref: "https://api.test/toepasbareRegels/42/sttr",
		},
		{name: "no embedded", body: `{}`, wantField: "_embedded"},
		{name: "empty rules", body: `{"_embedded":{"toepasbareRegels":[]}}`, wantField: "toepasbareRegels"},
		{name: "no links", body: `{"_embedded":{"toepasbareRegels":[{}]}}`, wantField: "_links"},
		{name: "no sttr", body: `{"_embedded":{"toepasbareRegels":[{"_links":{}}]}}`, wantField: "sttrBestand"},
		{name: "no href", body: `{"_embedded":{"toepasbareRegels":[{"_links":{"sttrBestand":{}}}]}}`, wantField: "href"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			href, err := DocumentHref(decodeRecord(t, tt.body))
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantHref, href)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingField))
			var mf *MissingFieldError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, tt.wantField, mf.Field)
		})
	}
}

func TestRecoverReference(t *testing.T) {
	r := decodeRecord(t, `{"_links":{"self":{"href":"https://api.test/toepasbareRegels?functioneleStructuurRef=http%3A%2F%2Fregels.test%2F0001%2Fabc-123&datum=01-01-2024"}}}`)
	ref, ok := RecoverReference(r)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", ref)

	r = decodeRecord(t, `{"_links":{"self":{"href":"https://api.test/toepasbareRegels?functioneleStructuurRef=plain"}}}`)
	assert.Equal(t, "plain", ReferenceOrUnknown(r))
}

func TestRecoverReference_FallsBackToUnknown(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"_links":{}}`,
		`{"_links":{"self":{"href":""}}}`,
		`{"_links":{"self":{"href":"https://api.test/toepasbareRegels?datum=01-01-2024"}}}`,
		`{"_links":{"self":{"href":"::not a url"}}}`,
		`{"_links":{"self":{"href":"https://api.test/x?functioneleStructuurRef=trailing/"}}}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			assert.Equal(t, UnknownReference, ReferenceOrUnknown(decodeRecord(t, body)))
		})
	}

	assert.Equal(t, UnknownReference, ReferenceOrUnknown(nil))
}

func TestArchiveIndex(t *testing.T) {
	x := NewArchiveIndex()

	assert.True(t, x.Add("Lozen", "Aanvraag vergunning", "https://a"))
	assert.True(t, x.Add("Lozen", "Melding", "https://b"))
	assert.False(t, x.Add("Lozen", "null", "https://c"))
	assert.True(t, x.Add("Lozen", "Aanvraag vergunning", "https://d"))

	assert.Equal(t, []ArchiveEntry{
		{Key: "Lozen_Aanvraag_vergunning", URL: "https://d"},
		{Key: "Lozen_Melding", URL: "https://b"},
	}, x.Entries())

	assert.Equal(t, 2, x.Len())
}
