package fit

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/centfit/glauber"
	"github.com/decibelcooper/centfit/logger"
)

// Strategy selects the optimizer.
type Strategy int

const (
	StrategyGrid Strategy = iota
	StrategyMinimizer
)

func (s Strategy) String() string {
	switch s {
	case StrategyGrid:
		return "grid"
	case StrategyMinimizer:
		return "minuit"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts "grid" and "minuit".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "grid", "":
		return StrategyGrid, nil
	case "minuit", "minimizer", "min":
		return StrategyMinimizer, nil
	}
	return 0, fmt.Errorf("fit: unknown strategy %q", s)
}

// Options configure the fit of each distribution of a session.
type Options struct {
	Strategy  Strategy
	Method    glauber.Method
	Rebin     int
	MultMin   float64
	MultMax   float64
	Grid      Grid
	Minimizer Minimizer
	Workers   int
}

// Session fits distributions against one Glauber ensemble.
type Session struct {
	ID    uuid.UUID
	Opts  Options
	Mixer *glauber.Mixer

	// Scans receives the grid points of every fit when not nil.
	Scans ScanStore
	// NtupleStem, when not empty, persists the mixed events of the final
	// prediction of distribution h to "<NtupleStem>_<h>.root".
	NtupleStem string
}

// NewSession returns a session with a fresh identifier.
func NewSession(opts Options, mixer *glauber.Mixer) *Session {
	return &Session{ID: uuid.New(), Opts: opts, Mixer: mixer}
}

// Result is the fit of one distribution.
type Result struct {
	Name   string
	Params glauber.Params
	Errors glauber.Params // minimizer only, NaN otherwise
	Score  float64        // optimizer minimum
	Final  float64        // score of the persisted prediction

	Data *hbook.H1D // rebinned input
	Pred *hbook.H1D // "<name>_GLAU"
	Effi *hbook.H1D // "<name>_EFFI"

	Efficiency float64 // data/prediction integral ratio
	Fraction   float64 // share of the prediction inside the fit range
}

// Fit optimizes the parameters for the distribution raw, then builds the
// final prediction and its efficiency.
func (s *Session) Fit(name string, raw *hbook.H1D) (*Result, error) {
	rebin := s.Opts.Rebin
	if rebin < 1 {
		rebin = 1
	}
	data, err := glauber.Rebin(raw, rebin)
	if err != nil {
		return nil, fmt.Errorf("could not rebin %q: %w", name, err)
	}
	glauber.Annotate(data, name, name)

	scorer, err := glauber.NewScorer(s.Opts.Method, data, s.Opts.MultMin, s.Opts.MultMax)
	if err != nil {
		return nil, fmt.Errorf("could not fit %q: %w", name, err)
	}
	cost := NewCost(data, s.Mixer, scorer)

	res := &Result{Name: name, Data: data}
	switch s.Opts.Strategy {
	case StrategyGrid:
		var scan ScanLog
		if s.Scans != nil {
			scan = s.Scans.Scan(name)
		}
		best, err := GridSearch(cost, s.Opts.Grid, s.Opts.Workers, scan)
		if err != nil {
			return nil, fmt.Errorf("grid search of %q failed: %w", name, err)
		}
		logger.Info("%s: grid scored %d points, %d excluded", name, best.Evaluated, best.Excluded)
		res.Params, res.Score = best.Params, best.Score
		res.Errors = noErrors
	case StrategyMinimizer:
		m := s.Opts.Minimizer
		m.ErrorDef = s.Opts.Method.ErrorDef()
		mres, err := m.Minimize(cost)
		if err != nil {
			return nil, fmt.Errorf("minimization of %q failed: %w", name, err)
		}
		logger.Info("%s: minimizer used %d evaluations (%v)", name, mres.Evals, mres.Status)
		res.Params, res.Score, res.Errors = mres.Params, mres.Score, mres.Errors
	default:
		return nil, fmt.Errorf("fit: unknown strategy %v", s.Opts.Strategy)
	}
	logger.Info("%s: best %v, minimum %s = %.4f", name, res.Params, s.Opts.Method, res.Score)

	pred, err := s.persist(name, res.Params, data)
	if err != nil {
		return nil, err
	}

	if total := glauber.Integral(pred, 0, pred.Len()-1); total > 0 {
		res.Fraction = glauber.Integral(pred, scorer.Lo, scorer.Hi) / total
	}
	logger.Info("%s: fitted fraction of the total cross section %.4f", name, res.Fraction)

	res.Final, err = scorer.Score(data, glauber.Clone(pred), res.Params.Eff)
	if err != nil {
		return nil, fmt.Errorf("could not score final prediction of %q: %w", name, err)
	}

	tail := glauber.Scorer{Method: scorer.Method, Lo: scorer.Lo, Hi: data.Len() - 1}
	if err := tail.Normalize(data, pred, res.Params.Eff); err != nil {
		return nil, fmt.Errorf("could not normalize prediction of %q: %w", name, err)
	}
	p := res.Params
	glauber.Annotate(pred, name+"_GLAU",
		fmt.Sprintf("%s_GLAU_%.3f_%.3f_%.3f_%.3f", name, p.Mu, p.K, p.Alpha, p.Eff))
	pred.Ann["session"] = s.ID.String()
	res.Pred = pred

	res.Effi, err = glauber.Efficiency(data, pred)
	if err != nil {
		return nil, err
	}
	glauber.Annotate(res.Effi, name+"_EFFI", name+"_EFFI")
	res.Effi.Ann["session"] = s.ID.String()

	res.Efficiency = glauber.EfficiencyIntegral(data, pred)
	logger.Info("%s: efficiency %.4f (mean bin ratio %.4f)", name, res.Efficiency, glauber.MeanRatio(data, pred))
	return res, nil
}

// persist mixes the final prediction, writing the side ntuple if requested.
func (s *Session) persist(name string, p glauber.Params, data *hbook.H1D) (pred *hbook.H1D, err error) {
	if s.NtupleStem == "" {
		pred, err = s.Mixer.Mix(p, data, nil)
		if err != nil {
			return nil, fmt.Errorf("could not mix final prediction of %q: %w", name, err)
		}
		return pred, nil
	}

	nt, err := glauber.CreateNtuple(fmt.Sprintf("%s_%s.root", s.NtupleStem, FileName(name)))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := nt.Close(); cerr != nil && err == nil {
			pred, err = nil, cerr
		}
	}()
	pred, err = s.Mixer.Mix(p, data, nt)
	if err != nil {
		return nil, fmt.Errorf("could not mix final prediction of %q: %w", name, err)
	}
	return pred, nil
}
