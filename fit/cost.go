// Package fit searches the Glauber parameter space for the prediction that
// best matches a measured multiplicity distribution.
package fit

import (
	"errors"

	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/centfit/glauber"
)

// Cost scores one parameter point; lower is better.
type Cost func(p glauber.Params) (float64, error)

// NewCost binds the data histogram, the mixer and the scorer of a session.
// The returned function allocates a fresh prediction on every call and is
// safe for concurrent use.
func NewCost(data *hbook.H1D, mixer *glauber.Mixer, scorer glauber.Scorer) Cost {
	return func(p glauber.Params) (float64, error) {
		pred, err := mixer.Mix(p, data, nil)
		if err != nil {
			return 0, err
		}
		return scorer.Score(data, pred, p.Eff)
	}
}

// excluded reports whether err marks a point outside of the usable parameter
// space rather than a failure of the session.
func excluded(err error) bool {
	return errors.Is(err, glauber.ErrInvalidParameter) || errors.Is(err, glauber.ErrDegenerate)
}
