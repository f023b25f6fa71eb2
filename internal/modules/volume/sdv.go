package volume

import (
	"fmt"
	"sort"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// sdvRow is one (speed, gain) entry of a speed-dependent-volume table,
// with distinct rising/falling gains (spec §4.8: "distinct gain_inc
// ... and gain_dec").
type sdvRow struct {
	speedKmh int32
	gainInc  float64 // linear, from tenths-of-dB
	gainDec  float64
}

// sdvTable interpolates extra gain from vehicle speed, tracking whether
// speed is rising or falling to pick the matching branch, with computed
// gains cached per quantized speed bucket since table lookup plus
// interpolation is repeated every period while SDV is enabled.
type sdvTable struct {
	rows []sdvRow

	lastSpeed int32
	cache     *cache.Cache
}

func newSDVTable() *sdvTable {
	return &sdvTable{
		cache: cache.New(5*time.Second, 10*time.Second),
	}
}

// setTable replaces the table wholesale (spec §6: SetSdvTable takes
// parallel int32 vectors for speed/gain_inc/gain_dec).
func (t *sdvTable) setTable(speeds, gainIncTenths, gainDecTenths []int32) error {
	if len(speeds) != len(gainIncTenths) || len(speeds) != len(gainDecTenths) {
		return invalidArg("sdv table: speed/gain_inc/gain_dec vectors must be the same length")
	}
	rows := make([]sdvRow, len(speeds))
	for i := range speeds {
		rows[i] = sdvRow{
			speedKmh: speeds[i],
			gainInc:  dbTenthsToLinear(gainIncTenths[i]),
			gainDec:  dbTenthsToLinear(gainDecTenths[i]),
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].speedKmh < rows[j].speedKmh })
	t.rows = rows
	t.cache.Flush()
	return nil
}

// gainAt returns the interpolated linear gain for the given speed, rising
// meaning speed increased since the last call.
func (t *sdvTable) gainAt(speedKmh int32, rising bool) float64 {
	if len(t.rows) == 0 {
		return 1.0
	}
	key := fmt.Sprintf("%d:%v", speedKmh, rising)
	if v, ok := t.cache.Get(key); ok {
		return v.(float64)
	}

	gain := t.interpolate(speedKmh, rising)
	t.cache.Set(key, gain, cache.DefaultExpiration)
	return gain
}

func (t *sdvTable) interpolate(speedKmh int32, rising bool) float64 {
	rows := t.rows
	if speedKmh <= rows[0].speedKmh {
		return t.branchGain(rows[0], rising)
	}
	last := len(rows) - 1
	if speedKmh >= rows[last].speedKmh {
		return t.branchGain(rows[last], rising)
	}
	for i := 0; i < last; i++ {
		a, b := rows[i], rows[i+1]
		if speedKmh >= a.speedKmh && speedKmh <= b.speedKmh {
			if b.speedKmh == a.speedKmh {
				return t.branchGain(a, rising)
			}
			frac := float64(speedKmh-a.speedKmh) / float64(b.speedKmh-a.speedKmh)
			ga, gb := t.branchGain(a, rising), t.branchGain(b, rising)
			return ga + frac*(gb-ga)
		}
	}
	return 1.0
}

func (t *sdvTable) branchGain(row sdvRow, rising bool) float64 {
	if rising {
		return row.gainInc
	}
	return row.gainDec
}

// setSpeed updates the tracked speed and reports whether it rose.
func (t *sdvTable) setSpeed(speedKmh int32) (rising bool) {
	rising = speedKmh >= t.lastSpeed
	t.lastSpeed = speedKmh
	return rising
}
