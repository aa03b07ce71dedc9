package glauber

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

func TestFindBin(t *testing.T) {
	h := hbook.NewH1D(4, 0, 8)
	for _, tc := range []struct {
		x    float64
		want int
	}{
		{-0.1, -1},
		{0, 0},
		{1.99, 0},
		{2, 1},
		{7.9, 3},
		{8, 4},
	} {
		require.Equal(t, tc.want, FindBin(h, tc.x), "x=%v", tc.x)
	}
}

func TestEdges(t *testing.T) {
	h := hbook.NewH1DFromEdges([]float64{0, 1, 3, 7})
	require.Equal(t, []float64{0, 1, 3, 7}, Edges(h))
	require.True(t, SameBinning(h, NewLike(h)))
	require.False(t, SameBinning(h, hbook.NewH1D(3, 0, 7)))
}

func TestRebin(t *testing.T) {
	h := newHist(t, []float64{1, 2, 3, 4, 5, 6, 7}, nil)
	Annotate(h, "hV0", "V0 amplitude")

	r, err := Rebin(h, 3)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 3, 6}, Edges(r))
	require.Equal(t, []float64{6, 15}, contentsOf(r))
	require.InDelta(t, math.Sqrt(15), Error(r, 1), 1e-12)
	require.Equal(t, "hV0", r.Name())

	_, err = Rebin(h, 0)
	require.Error(t, err)
	_, err = Rebin(h, 8)
	require.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	h := newHist(t, []float64{3, 4}, []float64{1, 1})
	c := Clone(h)
	c.Scale(2)
	require.Equal(t, []float64{3, 4}, contentsOf(h))
	require.Equal(t, []float64{6, 8}, contentsOf(c))
	require.InDelta(t, 2, Error(c, 0), 1e-12)
}

func TestIntegralClamps(t *testing.T) {
	h := newHist(t, []float64{1, 2, 3}, nil)
	require.Equal(t, 6.0, Integral(h, -5, 10))
	require.Equal(t, 5.0, Integral(h, 1, 2))
	require.Zero(t, Integral(h, 2, 1))
}
