// Package regions holds the fixed catalogue of regions offered by the
// region selector. The list is static configuration; it is not fetched from
// the generator API.
package regions

// DefaultRegion is selected when a view is first mounted.
const DefaultRegion = "USA"

// Region is one selectable option.
type Region struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Catalog is a read-only lookup table of regions.
type Catalog struct {
	options []Region
	index   map[string]int
	def     string
}

// New builds a catalog. The first option becomes the default when def is
// not among the options.
func New(def string, options ...Region) *Catalog {
	c := &Catalog{
		options: make([]Region, len(options)),
		index:   make(map[string]int, len(options)),
	}
	copy(c.options, options)
	for i, r := range c.options {
		c.index[r.Value] = i
	}

	c.def = def
	if _, ok := c.index[def]; !ok && len(c.options) > 0 {
		c.def = c.options[0].Value
	}
	return c
}

var builtin = New(DefaultRegion,
	Region{Value: "USA", Label: "USA"},
	Region{Value: "Canada", Label: "Canada"},
	Region{Value: "Poland", Label: "Poland"},
	Region{Value: "Germany", Label: "Germany"},
	Region{Value: "France", Label: "France"},
	Region{Value: "Georgia", Label: "Georgia"},
	Region{Value: "Ukraine", Label: "Ukraine"},
)

// Builtin returns the catalogue shipped with the application.
func Builtin() *Catalog {
	return builtin
}

// Options returns a copy of all regions in display order.
func (c *Catalog) Options() []Region {
	out := make([]Region, len(c.options))
	copy(out, c.options)
	return out
}

// Contains reports whether value is a known region.
func (c *Catalog) Contains(value string) bool {
	_, ok := c.index[value]
	return ok
}

// Default returns the value of the region selected on mount.
func (c *Catalog) Default() string {
	return c.def
}
