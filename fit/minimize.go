package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/decibelcooper/centfit/glauber"
	"github.com/decibelcooper/centfit/logger"
)

const (
	// penalty is returned to the minimizer for points the cost rejects.
	penalty = 1e9

	// fdStep is the finite-difference step in units of the parameter steps.
	fdStep = 0.1
)

// Limit is a closed parameter interval. A zero-width limit leaves the
// parameter free.
type Limit struct {
	Low, High float64
}

func (l Limit) free() bool { return !(l.High > l.Low) }

// Minimizer runs a simplex search followed by a quasi-Newton refinement.
// Parameters are moved in units of Step around Start; bounded parameters go
// through a sine transform that keeps them within their limits.
type Minimizer struct {
	Start glauber.Params
	Step  glauber.Params

	// Bounded enables the per-parameter limits between Lower and Upper.
	Bounded      bool
	Lower, Upper glauber.Params

	SimplexCalls int     // cost evaluations of the simplex phase
	GradCalls    int     // cost evaluations of the gradient phase
	Tolerance    float64 // convergence tolerance, in units of ErrorDef/1000

	// ErrorDef is the score increase of one standard deviation.
	ErrorDef float64
}

// DefaultMinimizer returns the start values used for mode.
func DefaultMinimizer(mode glauber.Mode) Minimizer {
	m := Minimizer{
		Start:        glauber.Params{Alpha: 0.832, Mu: 29, K: 1.4, Eff: 0.991},
		Step:         glauber.Params{Alpha: 0.1, Mu: 1, K: 0.1, Eff: 0.1},
		SimplexCalls: 100,
		GradCalls:    1000,
		Tolerance:    0.1,
		ErrorDef:     1,
	}
	if mode == glauber.ModeGauss {
		m.Start = glauber.Params{Alpha: 0.59, Mu: 30.2, K: 3.875, Eff: 0.98947}
		m.Bounded = true
		m.Lower = glauber.Params{Alpha: 0}
		m.Upper = glauber.Params{Alpha: 1}
	}
	return m
}

// MinResult is the outcome of Minimize.
type MinResult struct {
	Params glauber.Params
	Errors glauber.Params // NaN where the curvature is not positive
	Score  float64
	Evals  int
	Status optimize.Status
}

// vector order of the parameters.
func vec(p glauber.Params) []float64 { return []float64{p.Alpha, p.Mu, p.K, p.Eff} }

func params(v []float64) glauber.Params {
	return glauber.Params{Alpha: v[0], Mu: v[1], K: v[2], Eff: v[3]}
}

// transform maps internal coordinates to parameter values.
type transform struct {
	start, step []float64
	limits      []Limit
	v0, dv      []float64
}

func (m *Minimizer) transform() (*transform, error) {
	t := &transform{
		start:  vec(m.Start),
		step:   vec(m.Step),
		limits: make([]Limit, 4),
		v0:     make([]float64, 4),
		dv:     make([]float64, 4),
	}
	if m.Bounded {
		lo, hi := vec(m.Lower), vec(m.Upper)
		for i := range t.limits {
			t.limits[i] = Limit{Low: lo[i], High: hi[i]}
		}
	}
	for i, l := range t.limits {
		if !(t.step[i] > 0) {
			return nil, fmt.Errorf("fit: non-positive step %v for parameter %d", t.step[i], i)
		}
		if l.free() {
			continue
		}
		if t.start[i] < l.Low || t.start[i] > l.High {
			return nil, fmt.Errorf("fit: start %v outside of [%v, %v]", t.start[i], l.Low, l.High)
		}
		w := l.High - l.Low
		t.v0[i] = math.Asin(2*(t.start[i]-l.Low)/w - 1)
		t.dv[i] = 2 * t.step[i] / w
	}
	return t, nil
}

func (t *transform) external(x []float64) glauber.Params {
	v := make([]float64, len(x))
	for i, xi := range x {
		l := t.limits[i]
		if l.free() {
			v[i] = t.start[i] + xi*t.step[i]
			continue
		}
		v[i] = l.Low + (l.High-l.Low)*(math.Sin(t.v0[i]+xi*t.dv[i])+1)/2
	}
	return params(v)
}

// jacobian returns d(external)/d(internal) at x.
func (t *transform) jacobian(x []float64) []float64 {
	d := make([]float64, len(x))
	for i, xi := range x {
		l := t.limits[i]
		if l.free() {
			d[i] = t.step[i]
			continue
		}
		d[i] = (l.High - l.Low) / 2 * math.Cos(t.v0[i]+xi*t.dv[i]) * t.dv[i]
	}
	return d
}

// Minimize searches for the minimum of cost. Rejected points are seen by the
// minimizer as a large finite penalty. A phase that stops abnormally is
// logged and its best point kept.
func (m *Minimizer) Minimize(cost Cost) (MinResult, error) {
	t, err := m.transform()
	if err != nil {
		return MinResult{}, err
	}

	var (
		evals   int
		costErr error
	)
	f := func(x []float64) float64 {
		evals++
		s, err := cost(t.external(x))
		switch {
		case err == nil && !math.IsNaN(s):
			return s
		case err != nil && !excluded(err):
			if costErr == nil {
				costErr = err
			}
		}
		return penalty
	}
	grad := func(g, x []float64) {
		fd.Gradient(g, f, x, &fd.Settings{Formula: fd.Central, Step: fdStep})
	}
	problem := optimize.Problem{Func: f, Grad: grad}

	errorDef := m.ErrorDef
	if !(errorDef > 0) {
		errorDef = 1
	}
	converge := func() optimize.Converger {
		return &optimize.FunctionConverge{
			Absolute:   1e-3 * m.Tolerance * errorDef,
			Iterations: 10,
		}
	}

	bestX := make([]float64, 4)
	bestF := f(bestX)
	if costErr != nil {
		return MinResult{}, costErr
	}
	var status optimize.Status

	phases := []struct {
		name     string
		method   optimize.Method
		settings *optimize.Settings
	}{
		{
			name:     "simplex",
			method:   &optimize.NelderMead{SimplexSize: 1},
			settings: &optimize.Settings{FuncEvaluations: m.SimplexCalls, Converger: converge()},
		},
		{
			name:     "bfgs",
			method:   &optimize.BFGS{},
			settings: &optimize.Settings{FuncEvaluations: m.GradCalls, Converger: converge()},
		},
	}
	for _, ph := range phases {
		res, err := optimize.Minimize(problem, bestX, ph.settings, ph.method)
		if costErr != nil {
			return MinResult{}, costErr
		}
		if res == nil {
			logger.Warn("%s phase failed: %v", ph.name, err)
			continue
		}
		status = res.Status
		if err != nil || res.Status.Early() {
			logger.Warn("%s phase stopped abnormally (%v): %v", ph.name, res.Status, err)
		}
		logger.Debug("%s phase: %v score=%v evals=%d", ph.name, t.external(res.X), res.F, res.FuncEvaluations)
		if res.F < bestF {
			bestF = res.F
			copy(bestX, res.X)
		}
	}

	out := MinResult{
		Params: t.external(bestX),
		Score:  bestF,
		Status: status,
	}
	out.Errors = m.uncertainties(f, bestX, t, errorDef)
	if costErr != nil {
		return MinResult{}, costErr
	}
	out.Evals = evals
	return out, nil
}

// uncertainties inverts the finite-difference Hessian of f at x.
func (m *Minimizer) uncertainties(f func([]float64) float64, x []float64, t *transform, errorDef float64) glauber.Params {
	var hess mat.SymDense
	fd.Hessian(&hess, f, x, &fd.Settings{Formula: fd.Central, Step: fdStep})

	var chol mat.Cholesky
	if ok := chol.Factorize(&hess); !ok {
		logger.Warn("hessian is not positive definite, no parameter uncertainties")
		return noErrors
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		logger.Warn("could not invert hessian: %v", err)
		return noErrors
	}

	jac := t.jacobian(x)
	errs := make([]float64, len(x))
	for i := range errs {
		v := 2 * errorDef * cov.At(i, i)
		if !(v >= 0) {
			errs[i] = nan
			continue
		}
		errs[i] = math.Sqrt(v) * math.Abs(jac[i])
	}
	return params(errs)
}

var (
	nan      = math.NaN()
	noErrors = glauber.Params{Mu: nan, K: nan, Alpha: nan, Eff: nan}
)
