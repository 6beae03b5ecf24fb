package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/datatable/internal/generator"
)

// Control ranges. The slider and the numeric input express the same
// errors-per-record quantity at different scales.
const (
	SliderMax = 10.0
	InputMax  = 1000.0
	Step      = 0.1

	// SeedSpace bounds random seeds to [0, SeedSpace).
	SeedSpace = 1000

	inputPerSlider = 100.0
)

// Params is the user-controlled generation state of a view.
type Params struct {
	Region string  `json:"region"`
	Slider float64 `json:"slider"`
	Input  float64 `json:"input"`
	Seed   int64   `json:"seed"`
}

// DefaultParams returns the state of a freshly mounted view.
func DefaultParams(region string) Params {
	return Params{Region: region}
}

// ErrorsPerRecord is the value sent upstream. The slider value is
// authoritative; the input only feeds it through SetInput.
func (p Params) ErrorsPerRecord() float64 {
	return p.Slider
}

// Query builds the upstream query for page.
func (p Params) Query(page int) generator.Query {
	return generator.Query{
		Region:          p.Region,
		ErrorsPerRecord: p.ErrorsPerRecord(),
		Seed:            p.Seed,
		PageNumber:      page,
	}
}

// withSlider sets slider and input to the same value, without scaling.
// NaN leaves the params unchanged and reports false.
func (p Params) withSlider(v float64) (Params, bool) {
	if math.IsNaN(v) {
		return p, false
	}
	v = clamp(v, 0, SliderMax)
	p.Slider = v
	p.Input = v
	return p, true
}

// withInput sets the input and derives the slider as min(v/100, 10).
// A nil value resets both to zero.
func (p Params) withInput(v *float64) (Params, bool) {
	if v == nil {
		p.Slider = 0
		p.Input = 0
		return p, true
	}
	if math.IsNaN(*v) {
		return p, false
	}
	in := clamp(*v, 0, InputMax)
	p.Input = in
	p.Slider = math.Min(in/inputPerSlider, SliderMax)
	return p, true
}

// withSeed sets the seed; nil means zero.
func (p Params) withSeed(v *int64) (Params, error) {
	if v == nil {
		p.Seed = 0
		return p, nil
	}
	if *v < 0 {
		return p, fmt.Errorf("%w: seed %d must be non-negative", ErrInvalidParam, *v)
	}
	p.Seed = *v
	return p, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ParseOptionalFloat parses a form value. Empty input yields nil.
func ParseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidParam, s)
	}
	return &v, nil
}

// ParseOptionalSeed parses a seed form value. Empty input yields nil.
// Fractional values are truncated toward zero.
func ParseOptionalSeed(s string) (*int64, error) {
	f, err := ParseOptionalFloat(s)
	if err != nil || f == nil {
		return nil, err
	}
	if *f < 0 {
		return nil, fmt.Errorf("%w: seed %q must be non-negative", ErrInvalidParam, s)
	}
	if *f > math.MaxInt64/2 {
		return nil, fmt.Errorf("%w: seed %q is too large", ErrInvalidParam, s)
	}
	n := int64(*f)
	return &n, nil
}
