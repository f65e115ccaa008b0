package billingsync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, payload string) record {
	t.Helper()
	rec, err := parseRecord(json.RawMessage(payload))
	require.NoError(t, err)
	return rec
}

func TestParseRecord_Malformed(t *testing.T) {
	_, err := parseRecord(json.RawMessage(`{"id": `))
	assert.Error(t, err)
}

func TestRecord_FirstString(t *testing.T) {
	rec := mustRecord(t, `{"label": "INV-42", "status": "", "id": 123}`)

	assert.Equal(t, "INV-42", rec.firstString("invoice_number", "label"))
	assert.Equal(t, "", rec.firstString("status"))
	// Numeric ids stringify instead of disappearing.
	assert.Equal(t, "123", rec.firstString("id"))
	assert.Equal(t, "", rec.firstString("missing"))
}

func TestRecord_FirstStringList(t *testing.T) {
	rec := mustRecord(t, `{"emails": ["billing@acme.fr", "ceo@acme.fr"], "empty": []}`)

	assert.Equal(t, "billing@acme.fr", rec.firstStringList("emails"))
	assert.Equal(t, "", rec.firstStringList("empty"))
	assert.Equal(t, "", rec.firstStringList("missing"))
}

func TestRecord_FirstDecimal(t *testing.T) {
	rec := mustRecord(t, `{"amount": "1234.56", "total": 99.90, "bogus": "n/a"}`)

	d := rec.firstDecimal("amount", "total")
	require.NotNil(t, d)
	assert.Equal(t, "1234.56", d.String())

	// json.Number keeps the literal digits, no float drift.
	d = rec.firstDecimal("total")
	require.NotNil(t, d)
	assert.Equal(t, "99.9", d.String())

	assert.Nil(t, rec.firstDecimal("bogus"))
	assert.Nil(t, rec.firstDecimal("missing"))
}

func TestRecord_FirstTime(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *time.Time
	}{
		{
			name:    "bare date",
			payload: `{"date": "2025-03-15"}`,
			want:    timePtr(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:    "datetime without zone",
			payload: `{"date": "2025-03-15T10:30:00"}`,
			want:    timePtr(time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)),
		},
		{
			name:    "datetime with trailing Z",
			payload: `{"date": "2025-03-15T10:30:00Z"}`,
			want:    timePtr(time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)),
		},
		{
			name:    "datetime with offset",
			payload: `{"date": "2025-03-15T10:30:00+02:00"}`,
			want:    timePtr(time.Date(2025, 3, 15, 10, 30, 0, 0, time.FixedZone("", 2*3600))),
		},
		{
			name:    "unparsable is nil not error",
			payload: `{"date": "15/03/2025"}`,
			want:    nil,
		},
		{
			name:    "absent",
			payload: `{}`,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := mustRecord(t, tt.payload)
			got := rec.firstTime("date")
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestRecord_FirstTime_CandidateOrder(t *testing.T) {
	rec := mustRecord(t, `{"deadline": "2025-06-30", "due_date": "2025-07-15"}`)

	got := rec.firstTime("deadline", "due_date")
	require.NotNil(t, got)
	assert.Equal(t, 6, int(got.Month()))
}

func TestRecord_FirstURL(t *testing.T) {
	rec := mustRecord(t, `{
		"public_file_url": "not-a-url",
		"file_url": "https://files.example.com/inv.pdf",
		"pdf_url": "http://other.example.com/inv.pdf"
	}`)

	assert.Equal(t, "https://files.example.com/inv.pdf",
		rec.firstURL("public_file_url", "file_url", "pdf_invoice_url", "public_url", "pdf_url"))
	assert.Equal(t, "", rec.firstURL("public_file_url"))
	assert.Equal(t, "", rec.firstURL("missing"))
}

func TestRecord_CustomerRemoteID(t *testing.T) {
	rec := mustRecord(t, `{"customer": {"id": 4711, "url": "https://api.example.com/customers/4711"}}`)
	assert.Equal(t, "4711", rec.customerRemoteID())

	rec = mustRecord(t, `{"customer": "not-an-object"}`)
	assert.Equal(t, "", rec.customerRemoteID())

	rec = mustRecord(t, `{}`)
	assert.Equal(t, "", rec.customerRemoteID())
}

func TestRecord_Object(t *testing.T) {
	rec := mustRecord(t, `{"billing_address": {"city": "Paris"}, "delivery_address": null}`)

	assert.Equal(t, "Paris", rec.object("billing_address").firstString("city"))
	assert.Equal(t, "", rec.object("delivery_address").firstString("city"))
	assert.Equal(t, "", rec.object("missing").firstString("city"))
}

func timePtr(t time.Time) *time.Time { return &t }
