package glauber

import (
	"errors"
	"math"

	"go-hep.org/x/hep/hbook"
)

// Efficiency returns the bin-wise ratio data/pred with uncorrelated error
// propagation. Bins where pred is zero are set to zero with zero error.
func Efficiency(data, pred *hbook.H1D) (*hbook.H1D, error) {
	if !SameBinning(data, pred) {
		return nil, errors.New("glauber: data and prediction binnings differ")
	}
	n := data.Len()
	contents := make([]float64, n)
	errs := make([]float64, n)
	for i := 0; i < n; i++ {
		d, p := Content(data, i), Content(pred, i)
		if p == 0 {
			continue
		}
		ed, ep := Error(data, i), Error(pred, i)
		contents[i] = d / p
		errs[i] = math.Sqrt(d*d*ep*ep+p*p*ed*ed) / (p * p)
	}
	h := NewLike(data)
	SetBins(h, contents, errs)
	return h, nil
}

// EfficiencyIntegral is the ratio of the data and prediction integrals over
// all bins. It is NaN when the prediction is empty.
func EfficiencyIntegral(data, pred *hbook.H1D) float64 {
	p := Integral(pred, 0, pred.Len()-1)
	if p == 0 {
		return math.NaN()
	}
	return Integral(data, 0, data.Len()-1) / p
}

// MeanRatio is the unweighted mean of data/pred over the bins where pred is
// not zero. It equals EfficiencyIntegral only for a flat prediction.
func MeanRatio(data, pred *hbook.H1D) float64 {
	sum, n := 0.0, 0
	for i := 0; i < data.Len(); i++ {
		p := Content(pred, i)
		if p == 0 {
			continue
		}
		sum += Content(data, i) / p
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
