package glauber

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go-hep.org/x/hep/hbook"
)

// ErrFitRange reports a fit range outside of the data histogram.
var ErrFitRange = errors.New("glauber: fit range outside of histogram")

// Method is the goodness-of-fit statistic.
type Method int

const (
	Chi2 Method = iota
	LogLikelihood
)

func (m Method) String() string {
	switch m {
	case Chi2:
		return "chi2"
	case LogLikelihood:
		return "ll"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod accepts "chi2" and "ll".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "chi2", "":
		return Chi2, nil
	case "ll", "loglikelihood", "likelihood":
		return LogLikelihood, nil
	}
	return 0, fmt.Errorf("glauber: unknown score method %q", s)
}

// ErrorDef is the score increase defining one standard deviation.
func (m Method) ErrorDef() float64 {
	if m == LogLikelihood {
		return 0.5
	}
	return 1
}

// predFloor keeps log(pred) finite.
const predFloor = 1e-9

// Scorer compares predictions to data over the inclusive bin range [Lo, Hi].
type Scorer struct {
	Method Method
	Lo, Hi int
}

// NewScorer converts the multiplicity range [multMin, multMax] to bin indices
// of data.
func NewScorer(m Method, data *hbook.H1D, multMin, multMax float64) (Scorer, error) {
	if !(multMin <= multMax) {
		return Scorer{}, fmt.Errorf("%w: [%v, %v] is empty", ErrFitRange, multMin, multMax)
	}
	lo := FindBin(data, multMin)
	hi := FindBin(data, multMax)
	if hi == data.Len() && multMax == data.XMax() {
		hi = data.Len() - 1
	}
	if lo < 0 || hi >= data.Len() {
		return Scorer{}, fmt.Errorf("%w: [%v, %v] not in [%v, %v]",
			ErrFitRange, multMin, multMax, data.XMin(), data.XMax())
	}
	return Scorer{Method: m, Lo: lo, Hi: hi}, nil
}

// Normalize scales pred in place so that its integral over the fit range is
// eff times the data integral over the same range.
func (s Scorer) Normalize(data, pred *hbook.H1D, eff float64) error {
	mc := Integral(pred, s.Lo, s.Hi)
	if !(math.Abs(mc) > 0) || math.IsInf(mc, 0) {
		return fmt.Errorf("%w: prediction integral %v in fit range", ErrDegenerate, mc)
	}
	pred.Scale(Integral(data, s.Lo, s.Hi) / mc * eff)
	return nil
}

// Score normalizes pred (see Normalize) and returns the statistic, lower is
// better. pred is modified and must not be scored twice.
func (s Scorer) Score(data, pred *hbook.H1D, eff float64) (float64, error) {
	if !SameBinning(data, pred) {
		return 0, errors.New("glauber: data and prediction binnings differ")
	}
	if err := s.Normalize(data, pred, eff); err != nil {
		return 0, err
	}
	switch s.Method {
	case Chi2:
		return s.chi2(data, pred)
	case LogLikelihood:
		return s.deviance(data, pred), nil
	}
	return 0, fmt.Errorf("glauber: unknown score method %v", s.Method)
}

func (s Scorer) chi2(data, pred *hbook.H1D) (float64, error) {
	var (
		chi2 float64
		used int
	)
	for i := s.Lo; i <= s.Hi; i++ {
		d := Content(data, i)
		if d < 1 {
			continue
		}
		ed, ep := Error(data, i), Error(pred, i)
		v := ed*ed + ep*ep
		if v <= 0 {
			continue
		}
		diff := Content(pred, i) - d
		chi2 += diff * diff / v
		used++
	}
	if used == 0 {
		return 0, fmt.Errorf("%w: no populated data bins in fit range", ErrDegenerate)
	}
	return chi2 / float64(used), nil
}

// deviance is -2 ln(L(pred)/L(data)) for Poisson bins.
func (s Scorer) deviance(data, pred *hbook.H1D) float64 {
	ll := 0.0
	for i := s.Lo; i <= s.Hi; i++ {
		d := math.Round(Content(data, i))
		if d < 0 {
			d = 0
		}
		p := Content(pred, i)
		lf := LogFactorial(d)
		model := p - d*math.Log(math.Max(p, predFloor)) + lf
		saturated := 0.0
		if d > 0 {
			saturated = d - d*math.Log(d) + lf
		}
		ll += model - saturated
	}
	return 2 * ll
}

// stirlingMin is the smallest n evaluated with the Stirling series.
const stirlingMin = 20

// LogFactorial returns ln(n!) for a non-negative integral n, summing logs
// below stirlingMin and using the Stirling series above.
func LogFactorial(n float64) float64 {
	if n < 2 {
		return 0
	}
	if n < stirlingMin {
		sum := 0.0
		for i := 2.0; i <= n; i++ {
			sum += math.Log(i)
		}
		return sum
	}
	n2 := n * n
	return n*math.Log(n) - n + 0.5*math.Log(2*math.Pi*n) +
		1/(12*n) - 1/(360*n*n2) + 1/(1260*n*n2*n2)
}
