package shutter

import "math"

// Scaler maps the canonical 0-100 position onto device units.
//
// Open and Closed are the device values for fully open (100) and fully
// closed (0). Step quantizes the device value: Step >= 1 rounds to the
// nearest 1/Step, 0 < Step < 1 rounds to the nearest multiple of Step, and
// a zero, negative or NaN Step disables quantization.
type Scaler struct {
	Open   float64
	Closed float64
	Step   float64
}

// Scale converts a canonical position to device units. A NaN position
// stays NaN.
func (s Scaler) Scale(position float64) float64 {
	return s.quantize(remap(position, 0, 100, s.Closed, s.Open))
}

// Unscale converts a device value to a canonical position rounded to an
// integer. A degenerate Open == Closed range yields NaN, which callers
// treat as no value.
func (s Scaler) Unscale(value float64) float64 {
	return math.Round(remap(value, s.Closed, s.Open, 0, 100))
}

func (s Scaler) quantize(v float64) float64 {
	switch {
	case math.IsNaN(v), math.IsNaN(s.Step), s.Step <= 0:
		return v
	case s.Step >= 1:
		return math.Round(v*s.Step) / s.Step
	default:
		return math.Round(v/s.Step) * s.Step
	}
}

func remap(v, fromLow, fromHigh, toLow, toHigh float64) float64 {
	span := fromHigh - fromLow
	if span == 0 {
		return math.NaN()
	}
	return (v-fromLow)*(toHigh-toLow)/span + toLow
}
