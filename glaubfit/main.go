package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/centfit"
	"github.com/decibelcooper/centfit/config"
	"github.com/decibelcooper/centfit/fit"
	"github.com/decibelcooper/centfit/glauber"
	"github.com/decibelcooper/centfit/logger"
)

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: `+os.Args[0]+` [options] [<root-input-file>]

Fits a Glauber multiplicity model to each histogram and writes the rebinned
data, the fitted prediction (<histogram>_GLAU) and the efficiency
(<histogram>_EFFI) to the output file. Options override the configuration
file, the positional argument overrides input.file and -hist (repeatable or
comma separated) overrides input.histograms.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		cfgFile   = flag.String("config", "", "configuration file (yaml, toml or json)")
		ensemble  = flag.String("ensemble", "", "Glauber ntuple file")
		tree      = flag.String("tree", "", "Glauber ntuple name")
		entries   = flag.Int64("entries", 0, "maximum number of Glauber events (0: all)")
		output    = flag.String("output", "", "output ROOT file")
		yoda      = flag.String("yoda", "", "optional YODA copy of the output")
		scanLog   = flag.String("scanlog", "", "grid scan text log")
		scanDB    = flag.String("scandb", "", "grid scan SQLite database")
		ntuple    = flag.String("ntuple", "", "stem of the per-histogram side ntuple files")
		plotFile  = flag.String("plot", "", "fit plot file, suffixed with the histogram name")
		method    = flag.String("method", "", "optimizer: grid or minuit")
		score     = flag.String("score", "", "score: chi2 or ll")
		mode      = flag.String("mode", "", "mixing: nbd, nbd-fast or gauss")
		rebin     = flag.Int("rebin", 0, "rebin factor")
		multMin   = flag.Float64("multmin", 0, "lower edge of the fit range")
		multMax   = flag.Float64("multmax", 0, "upper edge of the fit range")
		seed      = flag.Uint64("seed", 0, "random seed")
		workers   = flag.Int("workers", 0, "grid search goroutines")
		muShift   = flag.Float64("mushift", 0, "relative shift of the mu axis per alpha step")
		logLevel  = flag.String("loglevel", "", "debug, info, warn or error")
		doProfile = flag.Bool("profile", false, "write a CPU profile")

		alpha, mu, k, eff centfit.AxisFlag
		start             centfit.FloatArrayFlags
		hists             centfit.StringArrayFlags
	)
	flag.Var(&alpha, "alpha", "grid axis n:low:high for alpha")
	flag.Var(&mu, "mu", "grid axis n:low:high for mu")
	flag.Var(&k, "k", "grid axis n:low:high for k")
	flag.Var(&eff, "eff", "grid axis n:low:high for eff")
	flag.Var(&start, "start", "minimizer start values alpha,mu,k,eff")
	flag.Var(&hists, "hist", "histogram to fit (repeatable)")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() > 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatal(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ensemble":
			cfg.Ensemble.File = *ensemble
		case "tree":
			cfg.Ensemble.Tree = *tree
		case "entries":
			cfg.Ensemble.Entries = *entries
		case "output":
			cfg.Output.File = *output
		case "yoda":
			cfg.Output.YODA = *yoda
		case "scanlog":
			cfg.Output.ScanLog = *scanLog
		case "scandb":
			cfg.Output.ScanDB = *scanDB
		case "ntuple":
			cfg.Output.Ntuple = *ntuple
		case "plot":
			cfg.Output.Plot = *plotFile
		case "method":
			cfg.Fit.Method = *method
		case "score":
			cfg.Fit.Score = *score
		case "mode":
			cfg.Fit.Mode = *mode
		case "rebin":
			cfg.Fit.Rebin = *rebin
		case "multmin":
			cfg.Fit.MultMin = *multMin
		case "multmax":
			cfg.Fit.MultMax = *multMax
		case "seed":
			cfg.Fit.Seed = *seed
		case "workers":
			cfg.Fit.Workers = *workers
		case "mushift":
			cfg.Fit.MuShift = *muShift
		case "loglevel":
			cfg.Logging.Level = *logLevel
		case "alpha":
			cfg.Grid.Alpha = alpha.Axis
		case "mu":
			cfg.Grid.Mu = mu.Axis
		case "k":
			cfg.Grid.K = k.Axis
		case "eff":
			cfg.Grid.Eff = eff.Axis
		}
	})
	if start.IsSet() {
		if len(start.Array) != 4 {
			log.Fatal("-start needs four values: alpha,mu,k,eff")
		}
		cfg.Minimizer.Start = &config.ParamsConfig{
			Alpha: start.Array[0],
			Mu:    start.Array[1],
			K:     start.Array[2],
			Eff:   start.Array[3],
		}
	}
	setInput(&cfg.Input, flag.Args(), &hists)

	if err := cfg.Validate(); err != nil {
		printUsage()
		log.Fatal(err)
	}
	logger.Init(cfg.Logging.Level, "glaubfit: ")

	if *doProfile {
		defer profile.Start().Stop()
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	opts, err := cfg.FitOptions()
	if err != nil {
		return err
	}
	mode, err := cfg.MixMode()
	if err != nil {
		return err
	}

	evts, err := glauber.LoadEnsemble(cfg.Ensemble.File, cfg.Ensemble.Tree, cfg.Ensemble.Entries)
	if err != nil {
		return err
	}
	logger.Info("loaded %d Glauber events from %s", len(evts), cfg.Ensemble.File)

	mixer := &glauber.Mixer{Events: evts, Mode: mode, Seed: cfg.Fit.Seed}
	s := fit.NewSession(opts, mixer)
	s.NtupleStem = cfg.Output.Ntuple
	logger.Info("session %s: %v optimizer, %v score, %v mixing", s.ID, opts.Strategy, opts.Method, mode)

	var scans fit.MultiScanStore
	if cfg.Output.ScanLog != "" && opts.Strategy == fit.StrategyGrid {
		text, err := fit.CreateTextScanLog(cfg.Output.ScanLog)
		if err != nil {
			return err
		}
		scans = append(scans, text)
	}
	if cfg.Output.ScanDB != "" {
		db, err := fit.OpenSQLiteScanLog(cfg.Output.ScanDB, s.ID)
		if err != nil {
			scans.Close()
			return err
		}
		scans = append(scans, db)
	}
	if len(scans) > 0 {
		s.Scans = scans
	}

	results, fitErr := s.MakeFits(cfg.Input.File, cfg.Input.Histograms, fit.Output{
		ROOT: cfg.Output.File,
		YODA: cfg.Output.YODA,
	})
	if err := scans.Close(); err != nil {
		logger.Error("could not close scan logs: %v", err)
	}

	for _, res := range results {
		fmt.Printf("%s: alpha=%.4f mu=%.4f k=%.4f eff=%.4f %v=%.4f efficiency=%.4f fraction=%.4f\n",
			res.Name, res.Params.Alpha, res.Params.Mu, res.Params.K, res.Params.Eff,
			opts.Method, res.Score, res.Efficiency, res.Fraction)
		if cfg.Output.Plot == "" {
			continue
		}
		title, _ := res.Pred.Ann["title"].(string)
		fname := plotName(cfg.Output.Plot, res.Name)
		fp := centfit.FitPlot{
			Title:   title,
			Data:    res.Data,
			Pred:    res.Pred,
			Effi:    res.Effi,
			MultMin: opts.MultMin,
			MultMax: opts.MultMax,
		}
		if err := fp.Save(fname, 6*vg.Inch, 6*vg.Inch); err != nil {
			logger.Error("could not plot %s: %v", res.Name, err)
		}
	}
	return fitErr
}

// plotName inserts the histogram name before the extension of base.
func plotName(base, hist string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + fit.FileName(hist) + ext
}

// setInput overrides the configured input file and histograms with the
// command line ones.
func setInput(in *config.InputConfig, args []string, hists *centfit.StringArrayFlags) {
	if len(args) > 0 {
		in.File = args[0]
	}
	if hists.IsSet() {
		in.Histograms = hists.Array
	}
}
