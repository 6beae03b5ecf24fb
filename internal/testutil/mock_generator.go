// Package testutil provides testing utilities for the generator client and
// the HTTP layer.
package testutil

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// MockGenerator is a deterministic stand-in for the generator API. Pages
// 1..Pages hold PageSize rows each; later pages are empty.
type MockGenerator struct {
	server *httptest.Server

	mu       sync.Mutex
	pageSize int
	pages    int
	failures map[string]int
	hook     func(r *http.Request)
	requests []Request
}

// Request is one recorded upstream call.
type Request struct {
	Path      string
	Query     url.Values
	UserAgent string
}

// NewMockGenerator starts a mock server serving /data, /generate and /export.
func NewMockGenerator(pageSize, pages int) *MockGenerator {
	m := &MockGenerator{
		pageSize: pageSize,
		pages:    pages,
		failures: make(map[string]int),
	}

	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the mock server URL with a trailing slash.
func (m *MockGenerator) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockGenerator) Close() {
	m.server.Close()
}

// SetFailure makes path answer with status. Status 0 clears the failure.
func (m *MockGenerator) SetFailure(path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == 0 {
		delete(m.failures, path)
		return
	}
	m.failures[path] = status
}

// SetHook installs a function run before every response, outside the lock.
// Tests use it to delay or block specific pages.
func (m *MockGenerator) SetHook(hook func(r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// Requests returns a copy of all recorded calls.
func (m *MockGenerator) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of calls made to path.
func (m *MockGenerator) RequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (m *MockGenerator) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, Request{
		Path:      r.URL.Path,
		Query:     r.URL.Query(),
		UserAgent: r.Header.Get("User-Agent"),
	})
	status := m.failures[r.URL.Path]
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(r)
	}

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	q := r.URL.Query()
	switch r.URL.Path {
	case "/data", "/generate":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(m.Page(q))
	case "/export":
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(m.CSV(q)))
	default:
		http.NotFound(w, r)
	}
}

// MockRow mirrors the generator's JSON row shape.
type MockRow struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Page returns the rows the mock serves for q.
func (m *MockGenerator) Page(q url.Values) []MockRow {
	m.mu.Lock()
	pageSize, pages := m.pageSize, m.pages
	m.mu.Unlock()

	page, _ := strconv.Atoi(q.Get("pageNumber"))
	if page < 1 || page > pages {
		return []MockRow{}
	}

	region := q.Get("region")
	seed := q.Get("seed")
	errs := q.Get("errorsPerRecord")

	rows := make([]MockRow, pageSize)
	for i := range rows {
		idx := (page-1)*pageSize + i + 1
		rows[i] = MockRow{
			ID:      fmt.Sprintf("%s-%s-%d", region, seed, idx),
			Index:   idx,
			Name:    fmt.Sprintf("Person %d e%s", idx, errs),
			Address: fmt.Sprintf("%d Main St, %s", idx, region),
			Phone:   fmt.Sprintf("+1-555-%04d", idx),
		}
	}
	return rows
}

// CSV returns the export body the mock serves for q: every row of every
// page, preceded by a header line.
func (m *MockGenerator) CSV(q url.Values) string {
	m.mu.Lock()
	pages := m.pages
	m.mu.Unlock()

	var b strings.Builder
	cw := csv.NewWriter(&b)
	_ = cw.Write([]string{"Index", "Id", "Name", "Address", "Phone"})

	pq := url.Values{}
	for k, v := range q {
		pq[k] = v
	}
	for page := 1; page <= pages; page++ {
		pq.Set("pageNumber", strconv.Itoa(page))
		for _, r := range m.Page(pq) {
			_ = cw.Write([]string{strconv.Itoa(r.Index), r.ID, r.Name, r.Address, r.Phone})
		}
	}
	cw.Flush()
	return b.String()
}
