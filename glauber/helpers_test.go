package glauber

import (
	"math"
	"math/rand/v2"
	"testing"

	"go-hep.org/x/hep/hbook"
)

// newHist builds a histogram with unit-width bins starting at zero.
func newHist(t testing.TB, contents, errs []float64) *hbook.H1D {
	t.Helper()
	edges := make([]float64, len(contents)+1)
	for i := range edges {
		edges[i] = float64(i)
	}
	h := hbook.NewH1DFromEdges(edges)
	if errs == nil {
		errs = make([]float64, len(contents))
		for i, c := range contents {
			errs[i] = math.Sqrt(c)
		}
	}
	SetBins(h, contents, errs)
	return h
}

func contentsOf(h *hbook.H1D) []float64 {
	out := make([]float64, h.Len())
	for i := range out {
		out[i] = Content(h, i)
	}
	return out
}

// fakeEnsemble is a cheap stand-in for a Glauber ensemble.
func fakeEnsemble(n int, seed uint64) Ensemble {
	rng := rand.New(rand.NewPCG(seed, 1))
	evts := make(Ensemble, n)
	for i := range evts {
		npart := 2 + float64(rng.IntN(400))
		evts[i] = Event{
			Npart: npart,
			Ncoll: math.Round(0.3 * math.Pow(npart, 1.35)),
			B:     15 * (1 - npart/402),
			Taa:   0.3 * math.Pow(npart, 1.35) / 64,
		}
	}
	return evts
}

type recorder struct {
	evts []Event
	ntot []int
}

func (r *recorder) Add(e Event, ntot int) error {
	r.evts = append(r.evts, e)
	r.ntot = append(r.ntot, ntot)
	return nil
}

func meanVar(xs []int) (float64, float64) {
	var sum, sum2 float64
	for _, x := range xs {
		sum += float64(x)
		sum2 += float64(x) * float64(x)
	}
	n := float64(len(xs))
	mean := sum / n
	return mean, sum2/n - mean*mean
}
