package equalizer

import "math"

// FilterBounds describes one filter type's valid parameter ranges,
// adapted from the teacher's `conf.EqFilterConfig` (a settings-UI
// metadata catalog listing min/max/default per filter parameter);
// here the same per-type bounds gate `SetFiltersSingleStream`/
// `CarSetFilter` parameter validation instead of describing a web form.
type FilterBounds struct {
	MinFreqHz, MaxFreqHz       float64
	MinQuality, MaxQuality     float64
	MinGainDB, MaxGainDB       float64
}

// filterCatalog gives every non-flat FilterType its valid parameter
// ranges. Gain bounds are zero-width (unused) for types that don't carry
// a gain parameter (LowPass/HighPass/BandPass).
var filterCatalog = map[FilterType]FilterBounds{
	LowPass:     {MinFreqHz: 20, MaxFreqHz: 20000, MinQuality: 0.1, MaxQuality: 10},
	HighPass:    {MinFreqHz: 20, MaxFreqHz: 20000, MinQuality: 0.1, MaxQuality: 10},
	BandPass:    {MinFreqHz: 20, MaxFreqHz: 20000, MinQuality: 0.1, MaxQuality: 10},
	Peak:        {MinFreqHz: 20, MaxFreqHz: 20000, MinQuality: 0.1, MaxQuality: 10, MinGainDB: -30, MaxGainDB: 30},
	LowShelving: {MinFreqHz: 20, MaxFreqHz: 20000, MinQuality: 0.1, MaxQuality: 10, MinGainDB: -30, MaxGainDB: 30},
	HighShelving: {MinFreqHz: 20, MaxFreqHz: 20000, MinQuality: 0.1, MaxQuality: 10, MinGainDB: -30, MaxGainDB: 30},
}

// validateBounds rejects parameters outside this filter type's catalog
// entry. Flat filters carry no catalog entry and are always accepted.
func (p FilterParams) validateBounds() error {
	if p.Type == Flat {
		return nil
	}
	bounds, ok := filterCatalog[p.Type]
	if !ok {
		return nil
	}
	if p.FreqHz < bounds.MinFreqHz || p.FreqHz > bounds.MaxFreqHz {
		return invalidArgf("filter frequency %.1fHz out of range [%.1f, %.1f]",
			p.FreqHz, bounds.MinFreqHz, bounds.MaxFreqHz)
	}
	if p.Quality < bounds.MinQuality || p.Quality > bounds.MaxQuality {
		return invalidArgf("filter Q %.3f out of range [%.3f, %.3f]",
			p.Quality, bounds.MinQuality, bounds.MaxQuality)
	}
	if bounds.MinGainDB != 0 || bounds.MaxGainDB != 0 {
		gainDB := 20 * math.Log10(math.Max(p.GainLinear, 1e-9))
		if gainDB < bounds.MinGainDB || gainDB > bounds.MaxGainDB {
			return invalidArgf("filter gain %.1fdB out of range [%.1f, %.1f]",
				gainDB, bounds.MinGainDB, bounds.MaxGainDB)
		}
	}
	return nil
}
