package centfit

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks places major ticks on round values and labels them without
// floating point noise. Labels longer than six characters use exponent form.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	if t.NSuggestedTicks < 2 {
		t.NSuggestedTicks = 4
	}
	if !(max > min) || math.IsInf(max-min, 0) {
		return []plot.Tick{{Value: min, Label: strconv.FormatFloat(min, 'g', 3, 64)}}
	}

	tens := math.Pow10(int(math.Floor(math.Log10(max - min))))
	n := (max - min) / tens
	for n < float64(t.NSuggestedTicks)-1 {
		tens /= 10
		n = (max - min) / tens
	}

	n = math.Round(n*1e9) / 1e9
	majorMult := int(n / float64(t.NSuggestedTicks-1))
	switch majorMult {
	case 0:
		majorMult = 1
	case 7:
		majorMult = 6
	case 9:
		majorMult = 8
	}
	majorDelta := float64(majorMult) * tens

	var ticks []plot.Tick
	first := math.Ceil(min/majorDelta) * majorDelta
	prec := -int(math.Floor(math.Log10(majorDelta)))
	for i := 0; ; i++ {
		v := round(first+float64(i)*majorDelta, prec)
		if v > max {
			break
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: formatTick(v, prec)})
	}

	minorDelta := majorDelta / 2
	switch majorMult {
	case 3, 6:
		minorDelta = majorDelta / 3
	case 5:
		minorDelta = majorDelta / 5
	}
	first = math.Ceil(min/minorDelta) * minorDelta
	for i := 0; ; i++ {
		v := round(first+float64(i)*minorDelta, prec+1)
		if v > max {
			break
		}
		if !hasTick(ticks, v) {
			ticks = append(ticks, plot.Tick{Value: v})
		}
	}
	return ticks
}

func hasTick(ticks []plot.Tick, v float64) bool {
	for _, t := range ticks {
		if t.Label != "" && math.Abs(t.Value-v) <= 1e-9*math.Max(1, math.Abs(v)) {
			return true
		}
	}
	return false
}

// round rounds x to prec decimal places; negative prec rounds to tens,
// hundreds and so on.
func round(x float64, prec int) float64 {
	if x == 0 {
		// no negative zero
		return 0
	}
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}
	if x == 0 {
		return 0
	}
	return x / pow
}

func formatTick(v float64, prec int) string {
	if prec < 0 {
		prec = 0
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if len(s) > 6 {
		return strconv.FormatFloat(v, 'g', 3, 64)
	}
	return s
}
