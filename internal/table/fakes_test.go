package table

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/datatable/internal/generator"
)

// fakeFetcher serves pages 1..pages of pageSize rows; later pages are empty.
// Row ids encode the query so tests can tell epochs apart.
type fakeFetcher struct {
	pageSize int
	pages    int

	mu    sync.Mutex
	calls []generator.Query
	err   error
	hook  func(ctx context.Context, q generator.Query) error
}

func newFakeFetcher(pageSize, pages int) *fakeFetcher {
	return &fakeFetcher{pageSize: pageSize, pages: pages}
}

func (f *fakeFetcher) ListRows(ctx context.Context, q generator.Query) ([]generator.Row, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	err := f.err
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		if herr := hook(ctx, q); herr != nil {
			return nil, herr
		}
	}
	if err != nil {
		return nil, err
	}

	if q.PageNumber > f.pages {
		return []generator.Row{}, nil
	}
	rows := make([]generator.Row, f.pageSize)
	for i := range rows {
		idx := (q.PageNumber-1)*f.pageSize + i + 1
		rows[i] = generator.Row{
			ID:    generator.Text(fmt.Sprintf("%s/%g/%d/%d", q.Region, q.ErrorsPerRecord, q.Seed, idx)),
			Index: generator.Text(fmt.Sprint(idx)),
			Name:  generator.Text(fmt.Sprintf("Person %d", idx)),
		}
	}
	return rows, nil
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) setHook(hook func(ctx context.Context, q generator.Query) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

func (f *fakeFetcher) Calls() []generator.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]generator.Query, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeFetcher) lastCall() generator.Query {
	calls := f.Calls()
	if len(calls) == 0 {
		return generator.Query{}
	}
	return calls[len(calls)-1]
}

// fakeCSV records export queries.
type fakeCSV struct {
	mu    sync.Mutex
	calls []generator.Query
	data  []byte
	err   error
}

func (f *fakeCSV) ExportCSV(ctx context.Context, q generator.Query) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}
