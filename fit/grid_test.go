package fit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/centfit/glauber"
)

func TestAxis(t *testing.T) {
	a := Axis{N: 4, Low: 1, High: 3}
	require.Equal(t, 0.5, a.Step())
	require.Equal(t, 1.0, a.At(0))
	require.Equal(t, 2.5, a.At(3))
	require.Equal(t, "4:1:3", a.String())
}

func TestGridPoint(t *testing.T) {
	g := Grid{
		Alpha:   Axis{N: 2, Low: 0.8, High: 0.9},
		Mu:      Axis{N: 3, Low: 20, High: 23},
		K:       Axis{N: 1, Low: 1, High: 2},
		Eff:     Axis{N: 2, Low: 0.9, High: 1.1},
		MuShift: 0.05,
	}
	require.Equal(t, 12, g.Size())

	p := g.Point(0)
	require.Equal(t, glauber.Params{Alpha: 0.8, Mu: 20, K: 1, Eff: 0.9}, p)

	// eff varies fastest
	require.InDelta(t, 1.0, g.Point(1).Eff, 1e-12)
	require.InDelta(t, 21.0, g.Point(2).Mu, 1e-12)

	// second alpha row: mu lower edge shifted by 5%
	p = g.Point(flatIndex(g, 1, 2, 0, 0))
	require.InDelta(t, 0.85, p.Alpha, 1e-12)
	require.InDelta(t, 20*0.95+2, p.Mu, 1e-12)
}

func TestGridValidate(t *testing.T) {
	g := selfGrid()
	require.NoError(t, g.Validate())
	g.K.N = 0
	require.Error(t, g.Validate())
	g = selfGrid()
	g.Mu.High = 0
	require.Error(t, g.Validate())
}

func TestGridSearchSelfConsistency(t *testing.T) {
	g := selfGrid()
	truth := g.Point(flatIndex(g, 2, 2, 2, 2))
	require.InDelta(t, 0.83, truth.Alpha, 1e-9)
	require.InDelta(t, 30, truth.Mu, 1e-9)
	require.InDelta(t, 1.4, truth.K, 1e-9)
	require.InDelta(t, 0.99, truth.Eff, 1e-9)

	// same steps, fewer points: exact NBD mixing draws every source
	nbdGrid := Grid{
		Alpha: Axis{N: 3, Low: 0.81, High: 0.87},
		Mu:    Axis{N: 3, Low: 28, High: 34},
		K:     Axis{N: 3, Low: 1.2, High: 1.8},
		Eff:   Axis{N: 3, Low: 0.98, High: 1.01},
	}

	evts := ensemble(30000, 7)
	for _, tc := range []struct {
		mode   glauber.Mode
		method glauber.Method
		grid   Grid
		truth  glauber.Params
	}{
		{glauber.ModeGauss, glauber.Chi2, g, truth},
		{glauber.ModeGauss, glauber.LogLikelihood, g, truth},
		{glauber.ModeNBDFast, glauber.Chi2, g, truth},
		{glauber.ModeNBD, glauber.Chi2, nbdGrid, nbdGrid.Point(flatIndex(nbdGrid, 1, 1, 1, 1))},
	} {
		name := tc.mode.String() + "/" + tc.method.String()
		if testing.Short() && tc.mode == glauber.ModeNBD {
			continue
		}

		// data and model share the ensemble but not the random stream
		gen := &glauber.Mixer{Events: evts, Mode: tc.mode, Seed: 12345}
		data, err := gen.Mix(tc.truth, hbook.NewH1D(100, 0, 20000), nil)
		require.NoError(t, err, name)
		mixer := &glauber.Mixer{Events: evts, Mode: tc.mode, Seed: 11}

		scorer, err := glauber.NewScorer(tc.method, data, 1000, 19000)
		require.NoError(t, err, name)

		var scan memScan
		best, err := GridSearch(NewCost(data, mixer, scorer), tc.grid, 8, &scan)
		require.NoError(t, err, name)
		require.Equal(t, tc.grid.Size(), best.Evaluated+best.Excluded, name)
		require.Len(t, scan.ps, best.Evaluated, name)

		require.InDelta(t, tc.truth.Alpha, best.Params.Alpha, 1.001*tc.grid.Alpha.Step(), name)
		require.InDelta(t, tc.truth.Mu, best.Params.Mu, 1.001*tc.grid.Mu.Step(), name)
		require.InDelta(t, tc.truth.K, best.Params.K, 1.001*tc.grid.K.Step(), name)
		// the data carry no efficiency, the best eff is a grid value close to one
		require.InDelta(t, tc.truth.Eff, best.Params.Eff, 1.001*tc.grid.Eff.Step(), name)
		require.Greater(t, best.Score, 0.0, name)

		for _, s := range scan.scores {
			require.LessOrEqual(t, best.Score, s, name)
		}
	}
}

func TestGridSearchDeterministic(t *testing.T) {
	g := selfGrid()
	g.MuShift = DefaultMuShift
	mixer, data := synthetic(t, glauber.Params{Alpha: 0.84, Mu: 31, K: 1.5, Eff: 1})
	scorer, err := glauber.NewScorer(glauber.Chi2, data, 1000, 19000)
	require.NoError(t, err)
	cost := NewCost(data, mixer, scorer)

	var serial, parallel memScan
	b1, err := GridSearch(cost, g, 1, &serial)
	require.NoError(t, err)
	b2, err := GridSearch(cost, g, 8, &parallel)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
	require.Equal(t, serial, parallel)
}

func TestGridSearchTies(t *testing.T) {
	g := Grid{
		Alpha: Axis{N: 2, Low: 0, High: 1},
		Mu:    Axis{N: 2, Low: 0, High: 1},
		K:     Axis{N: 2, Low: 0, High: 1},
		Eff:   Axis{N: 2, Low: 0, High: 1},
	}
	flat := func(glauber.Params) (float64, error) { return 3, nil }
	best, err := GridSearch(flat, g, 3, nil)
	require.NoError(t, err)
	require.Equal(t, 0, best.Index)
	require.Equal(t, 3.0, best.Score)
}

func TestGridSearchExcluded(t *testing.T) {
	g := Grid{
		Alpha: Axis{N: 1, Low: 0.8, High: 0.8},
		Mu:    Axis{N: 4, Low: 0, High: 4},
		K:     Axis{N: 1, Low: 1, High: 1},
		Eff:   Axis{N: 1, Low: 1, High: 1},
	}
	cost := func(p glauber.Params) (float64, error) {
		if p.Mu < 2 {
			return 0, fmt.Errorf("%w: mu=%v", glauber.ErrDegenerate, p.Mu)
		}
		return p.Mu, nil
	}
	var scan memScan
	best, err := GridSearch(cost, g, 1, &scan)
	require.NoError(t, err)
	require.Equal(t, 2.0, best.Params.Mu)
	require.Equal(t, 2, best.Excluded)
	require.Equal(t, []float64{2, 3}, scan.scores)

	all := func(glauber.Params) (float64, error) { return 0, glauber.ErrInvalidParameter }
	_, err = GridSearch(all, g, 2, nil)
	require.ErrorIs(t, err, ErrNoValidPoint)

	boom := errors.New("boom")
	fail := func(glauber.Params) (float64, error) { return 0, boom }
	_, err = GridSearch(fail, g, 2, nil)
	require.ErrorIs(t, err, boom)
}

func BenchmarkGridSearch(b *testing.B) {
	g := selfGrid()
	mixer, data := synthetic(b, g.Point(flatIndex(g, 2, 2, 2, 2)))
	scorer, err := glauber.NewScorer(glauber.Chi2, data, 1000, 19000)
	require.NoError(b, err)
	cost := NewCost(data, mixer, scorer)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := GridSearch(cost, g, 4, nil); err != nil {
			b.Fatal(err)
		}
	}
}
