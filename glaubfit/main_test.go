package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/centfit"
	"github.com/decibelcooper/centfit/config"
)

func TestPlotName(t *testing.T) {
	require.Equal(t, "fits_hV0M.png", plotName("fits.png", "hV0M"))
	require.Equal(t, "out/fits_dir_h.pdf", plotName("out/fits.pdf", "dir/h"))
	require.Equal(t, "fits_h", plotName("fits", "h"))
}

func TestSetInput(t *testing.T) {
	in := config.InputConfig{File: "cfg.root", Histograms: []string{"hCfg"}}
	var hists centfit.StringArrayFlags
	setInput(&in, nil, &hists)
	require.Equal(t, config.InputConfig{File: "cfg.root", Histograms: []string{"hCfg"}}, in)

	require.NoError(t, hists.Set("hV0M,hCL1"))
	require.NoError(t, hists.Set("hZNA"))
	setInput(&in, []string{"data.root"}, &hists)
	require.Equal(t, "data.root", in.File)
	require.Equal(t, []string{"hV0M", "hCL1", "hZNA"}, in.Histograms)
}
