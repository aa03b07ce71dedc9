package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/centfit/fit"
	"github.com/decibelcooper/centfit/glauber"
	"github.com/decibelcooper/centfit/logger"
)

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: `+os.Args[0]+` [options]

Generates a toy Pb-Pb Glauber ensemble and, with -data, a multiplicity
histogram mixed from it with known parameters.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		nEvents   = flag.Int("n", 100000, "number of events with at least one collision")
		seed      = flag.Uint64("seed", 1, "random seed")
		sigmaNN   = flag.Float64("sigmann", 64, "inelastic nucleon-nucleon cross section (mb)")
		bMax      = flag.Float64("bmax", 20, "maximum impact parameter (fm)")
		output    = flag.String("output", "glauber.root", "ensemble output file")
		tree      = flag.String("tree", "nt_Pb_Pb", "ensemble ntuple name")
		data      = flag.String("data", "", "optional synthetic data output file")
		hist      = flag.String("hist", "hMult", "synthetic data histogram name")
		mode      = flag.String("mode", "nbd", "mixing: nbd, nbd-fast or gauss")
		mu        = flag.Float64("mu", 29, "mean multiplicity per source")
		k         = flag.Float64("k", 1.4, "NBD k or Gaussian width factor")
		alpha     = flag.Float64("alpha", 0.832, "Npart weight")
		dataSeed  = flag.Uint64("dataseed", 2, "random seed of the synthetic data")
		nBins     = flag.Int("nbins", 200, "number of multiplicity bins")
		xMax      = flag.Float64("xmax", 20000, "upper edge of the multiplicity axis")
		doProfile = flag.Bool("profile", false, "write a CPU profile")
	)
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 0 || *nEvents < 1 || *nBins < 1 || *xMax <= 0 {
		printUsage()
		log.Fatal("Invalid arguments")
	}
	logger.Init("info", "glaubgen: ")

	if *doProfile {
		defer profile.Start().Stop()
	}

	mc := glauber.NewToyMC()
	mc.SigmaNN = *sigmaNN
	mc.BMax = *bMax
	evts, err := mc.Generate(*nEvents, *seed)
	if err != nil {
		log.Fatal(err)
	}
	if err := glauber.WriteEnsemble(*output, *tree, evts); err != nil {
		log.Fatal(err)
	}
	logger.Info("wrote %d events to %s:%s", len(evts), *output, *tree)

	if *data == "" {
		return
	}
	m, err := glauber.ParseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}
	mixer := &glauber.Mixer{Events: evts, Mode: m, Seed: *dataSeed}
	p := glauber.Params{Mu: *mu, K: *k, Alpha: *alpha, Eff: 1}
	h, err := mixer.Mix(p, hbook.NewH1D(*nBins, 0, *xMax), nil)
	if err != nil {
		log.Fatal(err)
	}
	glauber.Annotate(h, *hist, fmt.Sprintf("%s %v", *hist, p))
	if err := writeData(*data, h); err != nil {
		log.Fatal(err)
	}
	logger.Info("wrote %s (%v) to %s", *hist, p, *data)
}

func writeData(fname string, h *hbook.H1D) error {
	f, err := groot.Create(fname)
	if err != nil {
		return err
	}
	if err := fit.Save(f, h); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
