package glauber

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

func TestSources(t *testing.T) {
	p := Params{Alpha: 0.8}
	require.Equal(t, 12, p.Sources(10, 20)) // 8 + 4
	require.Equal(t, 11, p.Sources(10, 15)) // 8 + 3
	require.Equal(t, 10, p.Sources(10, 12)) // 8 + 2.4
	require.Equal(t, 0, Params{Alpha: 2}.Sources(1, 10))
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeNBD, ModeNBDFast, ModeGauss} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := ParseMode("poisson")
	require.Error(t, err)
}

func TestMixDeterministic(t *testing.T) {
	ref := hbook.NewH1D(50, 0, 10000)
	p := Params{Mu: 8, K: 1.2, Alpha: 0.85, Eff: 1}
	for _, mode := range []Mode{ModeNBD, ModeNBDFast, ModeGauss} {
		m := &Mixer{Events: fakeEnsemble(300, 1), Mode: mode, Seed: 42}
		h1, err := m.Mix(p, ref, nil)
		require.NoError(t, err)
		h2, err := m.Mix(p, ref, nil)
		require.NoError(t, err)
		require.Equal(t, contentsOf(h1), contentsOf(h2), mode.String())
		require.True(t, SameBinning(ref, h1))

		m.Seed = 43
		h3, err := m.Mix(p, ref, nil)
		require.NoError(t, err)
		require.NotEqual(t, contentsOf(h1), contentsOf(h3), mode.String())
	}
}

func TestMixModesAgree(t *testing.T) {
	const nevts = 4000
	evts := make(Ensemble, nevts)
	for i := range evts {
		evts[i] = Event{Npart: 10, Ncoll: 10}
	}
	p := Params{Mu: 5, K: 2, Alpha: 0.5, Eff: 1}
	ref := hbook.NewH1D(100, 0, 200)

	wantMean := 10 * p.Mu
	for _, mode := range []Mode{ModeNBD, ModeNBDFast, ModeGauss} {
		var rec recorder
		m := &Mixer{Events: evts, Mode: mode, Seed: 5}
		_, err := m.Mix(p, ref, &rec)
		require.NoError(t, err)
		require.Len(t, rec.ntot, nevts)

		mean, variance := meanVar(rec.ntot)
		require.InDelta(t, wantMean, mean, 1.5, mode.String())
		switch mode {
		case ModeGauss:
			require.InEpsilon(t, p.K*p.K*wantMean, variance, 0.15, mode.String())
		default:
			require.InEpsilon(t, 10*(p.Mu+p.Mu*p.Mu/p.K), variance, 0.15, mode.String())
		}
	}
}

func TestMixSideTable(t *testing.T) {
	evts := fakeEnsemble(50, 3)
	var rec recorder
	m := &Mixer{Events: evts, Mode: ModeGauss, Seed: 1}
	h, err := m.Mix(Params{Mu: 10, K: 1, Alpha: 0.8}, hbook.NewH1D(10, 0, 1e5), &rec)
	require.NoError(t, err)
	require.Equal(t, []Event(evts), rec.evts)

	total := 0.0
	for i := 0; i < h.Len(); i++ {
		total += Content(h, i)
	}
	require.Equal(t, float64(len(evts)), total)
}

func TestMixInvalidParameters(t *testing.T) {
	ref := hbook.NewH1D(10, 0, 100)
	evts := fakeEnsemble(5, 1)
	for _, tc := range []struct {
		mode Mode
		p    Params
	}{
		{ModeNBD, Params{Mu: -1, K: 1}},
		{ModeNBDFast, Params{Mu: 1, K: 0}},
		{ModeGauss, Params{Mu: 1, K: -1}},
	} {
		m := &Mixer{Events: evts, Mode: tc.mode}
		_, err := m.Mix(tc.p, ref, nil)
		require.ErrorIs(t, err, ErrInvalidParameter, tc.mode.String())
	}
}

func BenchmarkMix(b *testing.B) {
	ref := hbook.NewH1D(100, 0, 20000)
	evts := fakeEnsemble(2000, 1)
	p := Params{Mu: 29, K: 1.4, Alpha: 0.832, Eff: 0.991}
	for _, mode := range []Mode{ModeNBD, ModeNBDFast, ModeGauss} {
		b.Run(mode.String(), func(b *testing.B) {
			m := &Mixer{Events: evts, Mode: mode, Seed: 1}
			for i := 0; i < b.N; i++ {
				if _, err := m.Mix(p, ref, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
