package glauber

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"go-hep.org/x/hep/hbook"
)

// Mode selects how the multiplicity of n sources is drawn.
type Mode int

const (
	// ModeNBD sums n independent draws from the tabulated NBD.
	ModeNBD Mode = iota
	// ModeNBDFast draws once from the n-fold NBD convolution.
	ModeNBDFast
	// ModeGauss draws once from a Gaussian of mean n*mu and width k*sqrt(n*mu).
	ModeGauss
)

func (m Mode) String() string {
	switch m {
	case ModeNBD:
		return "nbd"
	case ModeNBDFast:
		return "nbd-fast"
	case ModeGauss:
		return "gauss"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "nbd", "":
		return ModeNBD, nil
	case "nbd-fast", "fast":
		return ModeNBDFast, nil
	case "gauss", "gaussian":
		return ModeGauss, nil
	}
	return 0, fmt.Errorf("glauber: unknown mixing mode %q", s)
}

// seedStream is the second PCG word; it only has to stay fixed.
const seedStream = 0x9e3779b97f4a7c15

// Mixer turns an ensemble and fit parameters into a predicted multiplicity
// histogram.
//
// Every call to Mix restarts the random stream from Seed, so identical
// parameters always give identical predictions and concurrent callers need no
// shared state.
type Mixer struct {
	Events Ensemble
	Mode   Mode
	Seed   uint64
}

// Mix fills a new histogram binned like ref. When side is not nil it receives
// every event together with its drawn multiplicity.
func (m *Mixer) Mix(p Params, ref *hbook.H1D, side SideTable) (*hbook.H1D, error) {
	src := rand.NewPCG(m.Seed, seedStream)

	var sampler *NBDSampler
	switch m.Mode {
	case ModeNBD:
		var err error
		sampler, err = NewNBDSampler(p.Mu, p.K, src)
		if err != nil {
			return nil, err
		}
	case ModeNBDFast:
		if err := checkMuK(p.Mu, p.K); err != nil {
			return nil, err
		}
	case ModeGauss:
		if !(p.Mu >= 0) || !(p.K >= 0) || math.IsInf(p.Mu, 0) || math.IsInf(p.K, 0) {
			return nil, fmt.Errorf("%w: mu=%v k=%v", ErrInvalidParameter, p.Mu, p.K)
		}
	default:
		return nil, fmt.Errorf("glauber: unknown mixing mode %v", m.Mode)
	}

	h := NewLike(ref)
	for _, e := range m.Events {
		n := p.Sources(e.Npart, e.Ncoll)
		ntot := 0
		switch m.Mode {
		case ModeNBD:
			for j := 0; j < n; j++ {
				ntot += sampler.Rand()
			}
		case ModeNBDFast:
			ntot = nbdSum(n, p.Mu, p.K, src)
		case ModeGauss:
			ntot = gauss(n, p.Mu, p.K, src)
		}
		h.Fill(float64(ntot), 1)

		if side != nil {
			if err := side.Add(e, ntot); err != nil {
				return nil, fmt.Errorf("could not persist mixed event: %w", err)
			}
		}
	}
	return h, nil
}
