package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/datatable/internal/table"
)

// downloadTTL bounds how long a finished export waits for the browser to
// pick it up.
const downloadTTL = time.Minute

// downloadStore parks finished exports between the HTMX export request and
// the browser navigation that downloads them. Tokens are single use.
type downloadStore struct {
	mu    sync.Mutex
	items *gocache.Cache
}

func newDownloadStore(ttl time.Duration) *downloadStore {
	return &downloadStore{items: gocache.New(ttl, ttl)}
}

// put stores exp and returns its token.
func (d *downloadStore) put(exp *table.Export) string {
	token := uuid.NewString()
	d.items.SetDefault(token, exp)
	return token
}

// take removes and returns the export for token.
func (d *downloadStore) take(token string) (*table.Export, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	item, found := d.items.Get(token)
	if !found {
		return nil, false
	}
	d.items.Delete(token)
	exp, ok := item.(*table.Export)
	return exp, ok
}

func (d *downloadStore) count() int {
	return d.items.ItemCount()
}
