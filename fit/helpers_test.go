package fit

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/centfit/glauber"
)

func ensemble(n int, seed uint64) glauber.Ensemble {
	rng := rand.New(rand.NewPCG(seed, 2))
	evts := make(glauber.Ensemble, n)
	for i := range evts {
		npart := 2 + float64(rng.IntN(400))
		ncoll := math.Round(0.3 * math.Pow(npart, 1.35))
		evts[i] = glauber.Event{Npart: npart, Ncoll: ncoll, B: 15 * (1 - npart/402), Taa: ncoll / 64}
	}
	return evts
}

// selfGrid has the generating point at index (2, 2, 2, 2).
func selfGrid() Grid {
	return Grid{
		Alpha: Axis{N: 5, Low: 0.79, High: 0.89},
		Mu:    Axis{N: 5, Low: 26, High: 36},
		K:     Axis{N: 5, Low: 1.0, High: 2.0},
		Eff:   Axis{N: 5, Low: 0.97, High: 1.02},
	}
}

func flatIndex(g Grid, ia, im, ik, ie int) int {
	return ((ia*g.Mu.N+im)*g.K.N+ik)*g.Eff.N + ie
}

// synthetic returns a Gaussian mixer and data generated by it at truth.
func synthetic(t testing.TB, truth glauber.Params) (*glauber.Mixer, *hbook.H1D) {
	t.Helper()
	return syntheticMode(t, glauber.ModeGauss, truth)
}

func syntheticMode(t testing.TB, mode glauber.Mode, truth glauber.Params) (*glauber.Mixer, *hbook.H1D) {
	t.Helper()
	m := &glauber.Mixer{Events: ensemble(1000, 7), Mode: mode, Seed: 11}
	data, err := m.Mix(truth, hbook.NewH1D(100, 0, 20000), nil)
	require.NoError(t, err)
	return m, data
}

type memScan struct {
	ps     []glauber.Params
	scores []float64
}

func (m *memScan) Record(p glauber.Params, score float64) error {
	m.ps = append(m.ps, p)
	m.scores = append(m.scores, score)
	return nil
}
