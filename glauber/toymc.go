package glauber

import (
	"errors"
	"math"
	"math/rand/v2"
)

// Nucleus is a Woods-Saxon nuclear density.
type Nucleus struct {
	A int     // mass number
	R float64 // radius (fm)
	D float64 // surface diffuseness (fm)
}

// Pb208 is the lead nucleus used at the LHC.
var Pb208 = Nucleus{A: 208, R: 6.62, D: 0.546}

// ToyMC is a minimal Glauber Monte Carlo: nucleons are sampled from the
// Woods-Saxon densities and collide when their transverse distance is below
// sqrt(SigmaNN/pi).
type ToyMC struct {
	Projectile Nucleus
	Target     Nucleus
	SigmaNN    float64 // inelastic nucleon-nucleon cross section (mb)
	BMax       float64 // maximum impact parameter (fm)
}

// NewToyMC returns a Pb-Pb generator at sqrt(sNN) = 2.76 TeV.
func NewToyMC() *ToyMC {
	return &ToyMC{
		Projectile: Pb208,
		Target:     Pb208,
		SigmaNN:    64,
		BMax:       20,
	}
}

type nucleon struct {
	x, y float64
	hit  bool
}

// Generate returns n events with at least one binary collision.
func (mc *ToyMC) Generate(n int, seed uint64) (Ensemble, error) {
	if mc.Projectile.A < 1 || mc.Target.A < 1 || mc.SigmaNN <= 0 || mc.BMax <= 0 {
		return nil, errors.New("glauber: invalid toy Monte Carlo configuration")
	}
	rng := rand.New(rand.NewPCG(seed, seedStream))
	// 1 mb = 0.1 fm^2
	d2max := mc.SigmaNN * 0.1 / math.Pi

	proj := make([]nucleon, mc.Projectile.A)
	targ := make([]nucleon, mc.Target.A)
	evts := make(Ensemble, 0, n)
	for len(evts) < n {
		b := mc.BMax * math.Sqrt(rng.Float64())
		mc.Projectile.place(proj, +b/2, rng)
		mc.Target.place(targ, -b/2, rng)

		ncoll := 0
		for i := range proj {
			for j := range targ {
				dx := proj[i].x - targ[j].x
				dy := proj[i].y - targ[j].y
				if dx*dx+dy*dy <= d2max {
					ncoll++
					proj[i].hit = true
					targ[j].hit = true
				}
			}
		}
		if ncoll == 0 {
			continue
		}
		npart := 0
		for _, nc := range proj {
			if nc.hit {
				npart++
			}
		}
		for _, nc := range targ {
			if nc.hit {
				npart++
			}
		}
		evts = append(evts, Event{
			Npart: float64(npart),
			Ncoll: float64(ncoll),
			B:     b,
			Taa:   float64(ncoll) / mc.SigmaNN,
		})
	}
	return evts, nil
}

// place samples the transverse positions of the nucleons, shifted by dx.
func (nu Nucleus) place(ns []nucleon, dx float64, rng *rand.Rand) {
	for i := range ns {
		r := nu.radius(rng)
		cost := 2*rng.Float64() - 1
		sint := math.Sqrt(1 - cost*cost)
		phi := 2 * math.Pi * rng.Float64()
		ns[i] = nucleon{
			x: r*sint*math.Cos(phi) + dx,
			y: r * sint * math.Sin(phi),
		}
	}
}

// radius draws r from r^2/(1+exp((r-R)/D)) by rejection.
func (nu Nucleus) radius(rng *rand.Rand) float64 {
	rmax := nu.R + 10*nu.D
	// r^2 * density is bounded by rmax^2.
	fmax := rmax * rmax
	for {
		r := rmax * rng.Float64()
		f := r * r / (1 + math.Exp((r-nu.R)/nu.D))
		if rng.Float64()*fmax <= f {
			return r
		}
	}
}
