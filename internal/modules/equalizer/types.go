package equalizer

import (
	"log/slog"
	"math"
)

// Mode selects a module instance's command vocabulary at construction,
// never changed afterward (spec §4.7, §9: "maintain strict mode isolation
// until clarified"). User mode sets cascade shape per stream and ramps
// gain per filter; car mode sets cascade shape (gain included) per
// stream-channel immediately, with no ramp.
type Mode int

const (
	ModeUser Mode = iota
	ModeCar
)

func (m Mode) String() string {
	if m == ModeCar {
		return "car"
	}
	return "user"
}

// FilterType names a biquad's transfer function shape.
type FilterType int

const (
	Flat FilterType = iota
	LowPass
	HighPass
	BandPass
	Peak
	LowShelving
	HighShelving
)

// rampable reports whether RampGainSingleStreamSingleFilter may act on a
// filter of this type ("on peak and shelving filters only"; spec §4.7).
func (t FilterType) rampable() bool {
	return t == Peak || t == LowShelving || t == HighShelving
}

// FilterParams describes one cascade stage. Section is the 2nd-order
// section index within a higher-order cascade; orders ≤ 2 always use
// section 0.
type FilterParams struct {
	FreqHz     float64
	GainLinear float64 // amplitude ratio, 1.0 == 0 dB
	Quality    float64
	Type       FilterType
	Order      int
	Section    int
}

// validateSection rejects the open question's documented failure mode:
// a section index that cannot exist for the given order (spec §9: "reject
// section >= ceil(order/2) and log").
func (p FilterParams) validateSection() error {
	maxSections := int(math.Ceil(float64(p.Order) / 2))
	if maxSections < 1 {
		maxSections = 1
	}
	if p.Section >= maxSections {
		slog.Warn("equalizer: rejected filter section",
			"section", p.Section, "order", p.Order, "maxSections", maxSections)
		return invalidArgf("filter section %d out of range for order %d (max %d sections)",
			p.Section, p.Order, maxSections)
	}
	return nil
}

// dbTenthsToLinear converts the wire convention (dB × 10) to an amplitude
// ratio.
func dbTenthsToLinear(dbTenths int32) float64 {
	return math.Pow(10, float64(dbTenths)/10/20)
}

// linearToDbTenths is the inverse of dbTenthsToLinear: it converts an
// amplitude ratio back to the wire convention (dB × 10).
func linearToDbTenths(linear float64) int32 {
	if linear <= 0 {
		return -1440
	}
	return int32(math.Round(20 * math.Log10(linear) * 10))
}

// gradientPropToFactor converts the wire "gradient" integer to the
// dimensionless per-frame multiplier (spec §4.7:
// "gradient = pow(20.0f, gradient_prop/1000.0f)").
func gradientPropToFactor(gradientProp int32) float64 {
	return math.Pow(20.0, float64(gradientProp)/1000.0)
}
