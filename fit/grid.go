package fit

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/centfit/glauber"
	"github.com/decibelcooper/centfit/logger"
)

// DefaultMuShift is the per-alpha-step relative shift of the lower edge of
// the mu axis.
const DefaultMuShift = 0.05

// ErrNoValidPoint is returned when every grid point was excluded.
var ErrNoValidPoint = errors.New("fit: no valid grid point")

// Axis is a half-open range [Low, High) sampled at N points.
type Axis struct {
	N    int     `mapstructure:"n"`
	Low  float64 `mapstructure:"low"`
	High float64 `mapstructure:"high"`
}

// Step is the distance between neighbouring points.
func (a Axis) Step() float64 {
	return (a.High - a.Low) / float64(a.N)
}

// At returns the i-th point.
func (a Axis) At(i int) float64 {
	return a.Low + float64(i)*a.Step()
}

func (a Axis) String() string {
	return fmt.Sprintf("%d:%g:%g", a.N, a.Low, a.High)
}

// Grid is the parameter grid swept by GridSearch. The mu axis starts at
// Mu.Low*(1-ia*MuShift) for the ia-th alpha value.
type Grid struct {
	Alpha   Axis
	Mu      Axis
	K       Axis
	Eff     Axis
	MuShift float64
}

// Validate checks that every axis has at least one point.
func (g Grid) Validate() error {
	for _, a := range []struct {
		name string
		axis Axis
	}{
		{"alpha", g.Alpha},
		{"mu", g.Mu},
		{"k", g.K},
		{"eff", g.Eff},
	} {
		if a.axis.N < 1 {
			return fmt.Errorf("fit: grid axis %s needs at least one point", a.name)
		}
		if !(a.axis.High >= a.axis.Low) {
			return fmt.Errorf("fit: grid axis %s has high %v below low %v", a.name, a.axis.High, a.axis.Low)
		}
	}
	return nil
}

// Size is the number of grid points.
func (g Grid) Size() int {
	return g.Alpha.N * g.Mu.N * g.K.N * g.Eff.N
}

// Point returns the parameters of the flat index i. Eff varies fastest,
// then k, mu and alpha.
func (g Grid) Point(i int) glauber.Params {
	ie := i % g.Eff.N
	i /= g.Eff.N
	ik := i % g.K.N
	i /= g.K.N
	im := i % g.Mu.N
	ia := i / g.Mu.N

	return glauber.Params{
		Alpha: g.Alpha.At(ia),
		Mu:    g.Mu.Low*(1-float64(ia)*g.MuShift) + float64(im)*g.Mu.Step(),
		K:     g.K.At(ik),
		Eff:   g.Eff.At(ie),
	}
}

// Best is the outcome of a grid search.
type Best struct {
	Params    glauber.Params
	Score     float64
	Index     int // flat grid index of Params
	Evaluated int // points scored
	Excluded  int // points rejected as invalid or degenerate
}

type gridPoint struct {
	score float64
	err   error
}

// GridSearch scores every point of g with cost, using up to workers
// goroutines, and returns the point with the lowest score. Ties go to the
// lowest grid index, so the result does not depend on workers. Scored points
// are recorded to scan, when not nil, in grid order.
func GridSearch(cost Cost, g Grid, workers int, scan ScanLog) (Best, error) {
	if err := g.Validate(); err != nil {
		return Best{}, err
	}

	points := make([]gridPoint, g.Size())
	eval := func(i int) error {
		score, err := cost(g.Point(i))
		if err != nil && !excluded(err) {
			return fmt.Errorf("could not score %v: %w", g.Point(i), err)
		}
		if err == nil && math.IsNaN(score) {
			err = fmt.Errorf("%w: NaN score", glauber.ErrDegenerate)
		}
		points[i] = gridPoint{score: score, err: err}
		return nil
	}

	if workers <= 1 {
		for i := range points {
			if err := eval(i); err != nil {
				return Best{}, err
			}
		}
	} else {
		var grp errgroup.Group
		grp.SetLimit(workers)
		for i := range points {
			grp.Go(func() error { return eval(i) })
		}
		if err := grp.Wait(); err != nil {
			return Best{}, err
		}
	}

	best := Best{Score: math.Inf(1), Index: -1}
	for i, pt := range points {
		p := g.Point(i)
		if pt.err != nil {
			best.Excluded++
			logger.Debug("excluded %v: %v", p, pt.err)
			continue
		}
		best.Evaluated++
		if scan != nil {
			if err := scan.Record(p, pt.score); err != nil {
				return Best{}, fmt.Errorf("could not record scan point: %w", err)
			}
		}
		if pt.score < best.Score {
			best.Score = pt.score
			best.Params = p
			best.Index = i
		}
	}
	if best.Index < 0 {
		return best, ErrNoValidPoint
	}
	return best, nil
}
