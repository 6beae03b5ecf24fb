// Package generator is the HTTP client for the remote fake-record generation
// API. It lists pages of rows and downloads CSV exports, with an optional
// page cache, outbound rate limiting and Prometheus instrumentation.
//
// The generator is deterministic for a given (region, errorsPerRecord, seed,
// pageNumber) tuple, which is what makes caching pages safe.
package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// Upstream endpoint names. The list endpoint was renamed from "generate" to
// "data" without a contract change; both are accepted.
const (
	EndpointGenerate = "generate"
	EndpointData     = "data"
	EndpointExport   = "export"
)

// Parameter bounds accepted by the generator.
const (
	MaxErrorsPerRecord = 1000
	FirstPage          = 1
)

// Row is one generated record.
type Row struct {
	ID      Text `json:"id"`
	Index   Text `json:"index"`
	Name    Text `json:"name"`
	Address Text `json:"address"`
	Phone   Text `json:"phone"`
}

// Key returns the row identity: its id, or its position when the id is empty.
func (r Row) Key(pos int) string {
	if r.ID != "" {
		return string(r.ID)
	}
	return strconv.Itoa(pos)
}

// Columns is the display and CSV order of row fields.
var Columns = []string{"Index", "Id", "Name", "Address", "Phone"}

// Record returns the row's values in Columns order.
func (r Row) Record() []string {
	return []string{string(r.Index), string(r.ID), string(r.Name), string(r.Address), string(r.Phone)}
}

// Text is a string field that also accepts JSON numbers, since the generator
// is not strict about emitting index and id as strings.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("text field: %w", err)
	}
	*t = Text(n.String())
	return nil
}

// Query identifies one page of generated rows.
type Query struct {
	Region          string
	ErrorsPerRecord float64
	Seed            int64
	PageNumber      int
}

// Validate checks the query against the generator's parameter bounds.
func (q Query) Validate() error {
	if q.Region == "" {
		return fmt.Errorf("invalid query: region is required")
	}
	if math.IsNaN(q.ErrorsPerRecord) || q.ErrorsPerRecord < 0 || q.ErrorsPerRecord > MaxErrorsPerRecord {
		return fmt.Errorf("invalid query: errorsPerRecord %v out of range [0, %d]", q.ErrorsPerRecord, MaxErrorsPerRecord)
	}
	if q.Seed < 0 {
		return fmt.Errorf("invalid query: seed %d must be non-negative", q.Seed)
	}
	if q.PageNumber < FirstPage {
		return fmt.Errorf("invalid query: pageNumber %d must be >= %d", q.PageNumber, FirstPage)
	}
	return nil
}

// Values encodes the query using the generator's parameter names.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("region", q.Region)
	v.Set("errorsPerRecord", strconv.FormatFloat(q.ErrorsPerRecord, 'f', -1, 64))
	v.Set("seed", strconv.FormatInt(q.Seed, 10))
	v.Set("pageNumber", strconv.Itoa(q.PageNumber))
	return v
}

// ParseQuery is the inverse of Values. Missing pageNumber defaults to 1.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{Region: v.Get("region"), PageNumber: FirstPage}

	if s := v.Get("errorsPerRecord"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Query{}, fmt.Errorf("invalid query: errorsPerRecord: %w", err)
		}
		q.ErrorsPerRecord = f
	}
	if s := v.Get("seed"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Query{}, fmt.Errorf("invalid query: seed: %w", err)
		}
		q.Seed = n
	}
	if s := v.Get("pageNumber"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Query{}, fmt.Errorf("invalid query: pageNumber: %w", err)
		}
		q.PageNumber = n
	}

	return q, q.Validate()
}
