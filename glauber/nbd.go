// Package glauber builds Glauber-model multiplicity predictions from a
// Monte-Carlo ensemble of nucleus-nucleus collisions and compares them to
// measured multiplicity distributions.
package glauber

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// NBDSupport is the number of multiplicity values tabulated per source.
	NBDSupport = 300
	// NBDFloor drops tabulated probabilities at or below this value.
	NBDFloor = 1e-20
)

var (
	ErrInvalidParameter = errors.New("glauber: invalid parameter")
	ErrDegenerate       = errors.New("glauber: degenerate prediction")
)

// Params is a point in the fit parameter space.
type Params struct {
	Mu    float64 // mean multiplicity per source
	K     float64 // NBD dispersion, or Gaussian width factor
	Alpha float64 // Npart/Ncoll mixing weight
	Eff   float64 // efficiency scale
}

func (p Params) String() string {
	return fmt.Sprintf("mu=%.3f k=%.3f alpha=%.3f eff=%.3f", p.Mu, p.K, p.Alpha, p.Eff)
}

// Sources returns the rounded number of particle sources of an event.
func (p Params) Sources(npart, ncoll float64) int {
	n := int(math.Round(p.Alpha*npart + (1-p.Alpha)*ncoll))
	if n < 0 {
		return 0
	}
	return n
}

func checkMuK(mu, k float64) error {
	switch {
	case math.IsNaN(mu) || math.IsNaN(k) || math.IsInf(mu, 0) || math.IsInf(k, 0):
		return fmt.Errorf("%w: mu=%v k=%v", ErrInvalidParameter, mu, k)
	case math.Abs(mu+k) < 1e-9:
		return fmt.Errorf("%w: mu+k=%v", ErrInvalidParameter, mu+k)
	case mu < 0 || k <= 0:
		return fmt.Errorf("%w: mu=%v k=%v", ErrInvalidParameter, mu, k)
	}
	return nil
}

// NBD returns the negative binomial probability of n for mean mu and
// dispersion k.
func NBD(n int, mu, k float64) float64 {
	if n < 0 {
		return 0
	}
	lnk, _ := math.Lgamma(float64(n) + k)
	lk, _ := math.Lgamma(k)
	ln1, _ := math.Lgamma(float64(n) + 1)
	p := mu / (mu + k)
	return math.Exp(lnk-lk-ln1) * math.Pow(p, float64(n)) * math.Pow(1-p, k)
}

// NBDSampler draws per-source multiplicities from a tabulated NBD.
type NBDSampler struct {
	pmf  []float64
	dist distuv.Categorical
}

// NewNBDSampler tabulates NBD(mu, k) over [0, NBDSupport).
func NewNBDSampler(mu, k float64, src rand.Source) (*NBDSampler, error) {
	if err := checkMuK(mu, k); err != nil {
		return nil, err
	}
	pmf := make([]float64, NBDSupport)
	for n := range pmf {
		if v := NBD(n, mu, k); v > NBDFloor {
			pmf[n] = v
		}
	}
	if sum := floats.Sum(pmf); !(sum > 0) {
		return nil, fmt.Errorf("%w: empty NBD table for mu=%v k=%v", ErrInvalidParameter, mu, k)
	}
	return &NBDSampler{
		pmf:  pmf,
		dist: distuv.NewCategorical(pmf, src),
	}, nil
}

// PMF returns the tabulated probabilities. The slice must not be modified.
func (s *NBDSampler) PMF() []float64 {
	return s.pmf
}

// Rand returns one multiplicity.
func (s *NBDSampler) Rand() int {
	return int(s.dist.Rand())
}

// nbdSum draws the sum of n NBD(mu, k) variables, which is NBD(n*mu, n*k),
// through its gamma-Poisson representation.
func nbdSum(n int, mu, k float64, src rand.Source) int {
	if n == 0 || mu == 0 {
		return 0
	}
	nf := float64(n)
	lambda := distuv.Gamma{Alpha: nf * k, Beta: k / mu, Src: src}.Rand()
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: src}.Rand())
}

// gauss draws the Gaussian approximation of the n-source multiplicity.
func gauss(n int, mu, k float64, src rand.Source) int {
	mean := float64(n) * mu
	if mean <= 0 {
		return 0
	}
	return int(distuv.Normal{Mu: mean, Sigma: k * math.Sqrt(mean), Src: src}.Rand())
}
