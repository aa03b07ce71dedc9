package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/centfit/fit"
	"github.com/decibelcooper/centfit/glauber"
)

func TestLoad(t *testing.T) {
	data := hbook.NewH1D(10, 0, 100)
	pred := hbook.NewH1D(10, 0, 100)
	for i := 0; i < 10; i++ {
		data.Fill(float64(i)*10+5, 10)
		pred.Fill(float64(i)*10+5, 11)
	}
	glauber.Annotate(data, "h", "h")
	glauber.Annotate(pred, "h_GLAU", "h_GLAU_30.000_1.400_0.830_1.000")

	fname := filepath.Join(t.TempDir(), "fit.root")
	f, err := groot.Create(fname)
	require.NoError(t, err)
	require.NoError(t, fit.Save(f, data, pred))
	require.NoError(t, f.Close())

	f, err = groot.Open(fname)
	require.NoError(t, err)
	defer f.Close()

	fp, err := load(f, "h")
	require.NoError(t, err)
	require.Equal(t, "h_GLAU_30.000_1.400_0.830_1.000", fp.Title)
	require.Nil(t, fp.Effi)
	require.Equal(t, 10, fp.Data.Len())

	_, err = load(f, "missing")
	require.ErrorIs(t, err, fit.ErrMissingHist)
}
