package billingsync

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// record is one decoded remote payload. The remote API is loose about field
// names and nesting, so all accessors take ordered candidate keys and return
// the first usable value; absent or malformed values yield zero values, never
// errors.
type record map[string]any

// parseRecord decodes a raw payload, keeping numbers as json.Number so money
// values survive without float rounding.
func parseRecord(raw json.RawMessage) (record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// object returns a nested object value, or an empty record when the key is
// absent or not an object.
func (r record) object(key string) record {
	if obj, ok := r[key].(map[string]any); ok {
		return record(obj)
	}
	return record{}
}

// stringValue stringifies the value under key: strings pass through, numbers
// are rendered verbatim, everything else is treated as absent.
func (r record) stringValue(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// firstString returns the first non-empty string among the candidate keys.
func (r record) firstString(keys ...string) string {
	for _, key := range keys {
		if s := r.stringValue(key); s != "" {
			return s
		}
	}
	return ""
}

// firstStringList returns the first element of the first non-empty string
// array among the candidate keys.
func (r record) firstStringList(keys ...string) string {
	for _, key := range keys {
		list, ok := r[key].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if s, ok := list[0].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstDecimal parses the first present candidate as a decimal. Unparsable
// values count as absent.
func (r record) firstDecimal(keys ...string) *decimal.Decimal {
	for _, key := range keys {
		s := r.stringValue(key)
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			continue
		}
		return &d
	}
	return nil
}

// dateLayouts covers the formats the remote API emits for date and datetime
// fields: bare dates, ISO-8601 with trailing Z, and explicit offsets.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	time.RFC3339Nano,
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// firstTime parses the first present candidate as a timestamp; unparsable
// values yield nil rather than an error.
func (r record) firstTime(keys ...string) *time.Time {
	for _, key := range keys {
		if t := parseTime(r.stringValue(key)); t != nil {
			return t
		}
	}
	return nil
}

// firstURL returns the first candidate that is a well-formed absolute http(s)
// URL.
func (r record) firstURL(keys ...string) string {
	for _, key := range keys {
		s := r.stringValue(key)
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return s
		}
	}
	return ""
}

// customerRemoteID extracts the referenced customer id from the nested
// `{"customer": {"id": …}}` shape the dependent-entity payloads use.
func (r record) customerRemoteID() string {
	return r.object("customer").stringValue("id")
}
