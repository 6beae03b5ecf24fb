package generator

import (
	"encoding/json"
	"net/url"
	"testing"
)

func TestQueryValues(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want map[string]string
	}{
		{
			name: "defaults",
			q:    Query{Region: "USA", PageNumber: 1},
			want: map[string]string{"region": "USA", "errorsPerRecord": "0", "seed": "0", "pageNumber": "1"},
		},
		{
			name: "fractional errors",
			q:    Query{Region: "Poland", ErrorsPerRecord: 2.5, Seed: 42, PageNumber: 3},
			want: map[string]string{"region": "Poland", "errorsPerRecord": "2.5", "seed": "42", "pageNumber": "3"},
		},
		{
			name: "integer errors have no exponent",
			q:    Query{Region: "USA", ErrorsPerRecord: 1000, PageNumber: 1},
			want: map[string]string{"errorsPerRecord": "1000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.q.Values()
			for k, want := range tt.want {
				if got := v.Get(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		in      url.Values
		want    Query
		wantErr bool
	}{
		{
			name: "page defaults to first",
			in:   url.Values{"region": {"USA"}},
			want: Query{Region: "USA", PageNumber: 1},
		},
		{
			name: "all fields",
			in:   url.Values{"region": {"Canada"}, "errorsPerRecord": {"0.75"}, "seed": {"11"}, "pageNumber": {"4"}},
			want: Query{Region: "Canada", ErrorsPerRecord: 0.75, Seed: 11, PageNumber: 4},
		},
		{name: "missing region", in: url.Values{}, wantErr: true},
		{name: "bad seed", in: url.Values{"region": {"USA"}, "seed": {"abc"}}, wantErr: true},
		{name: "bad errors", in: url.Values{"region": {"USA"}, "errorsPerRecord": {"x"}}, wantErr: true},
		{name: "bad page", in: url.Values{"region": {"USA"}, "pageNumber": {"0"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuery(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRowDecode_LenientText(t *testing.T) {
	data := []byte(`[
		{"id":"a1","index":"1","name":"Ann","address":"1 Road","phone":"555"},
		{"id":17,"index":2,"name":null,"address":"2 Road","phone":"556"}
	]`)

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1].ID != "17" || rows[1].Index != "2" {
		t.Errorf("numeric fields = %q/%q, want 17/2", rows[1].ID, rows[1].Index)
	}
	if rows[1].Name != "" {
		t.Errorf("null name = %q, want empty", rows[1].Name)
	}
}

func TestRowDecode_RejectsObject(t *testing.T) {
	var rows []Row
	if err := json.Unmarshal([]byte(`[{"id":{"x":1}}]`), &rows); err == nil {
		t.Error("expected error for object-valued id")
	}
}

func TestRowKey(t *testing.T) {
	if got := (Row{ID: "abc"}).Key(5); got != "abc" {
		t.Errorf("Key() = %q, want abc", got)
	}
	if got := (Row{}).Key(5); got != "5" {
		t.Errorf("Key() = %q, want 5", got)
	}
}

func TestRowRecord(t *testing.T) {
	r := Row{ID: "i", Index: "1", Name: "n", Address: "a", Phone: "p"}
	got := r.Record()
	want := []string{"1", "i", "n", "a", "p"}
	if len(got) != len(Columns) {
		t.Fatalf("len(Record()) = %d, want %d", len(got), len(Columns))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Record()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
