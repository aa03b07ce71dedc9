package fit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/decibelcooper/centfit/logger"
)

// ErrMissingHist reports a distribution absent from the input file.
var ErrMissingHist = errors.New("fit: histogram not found")

var fileNameReplacer = strings.NewReplacer("/", "_", " ", "_", ";", "_")

// FileName turns a histogram path into a single file name component.
func FileName(hist string) string {
	return fileNameReplacer.Replace(hist)
}

// ReadH1D reads the 1-dim histogram name from f.
func ReadH1D(f *groot.File, name string) (*hbook.H1D, error) {
	obj, err := f.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMissingHist, name, err)
	}
	r, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("object %q is a %T, not a 1-dim histogram", name, obj)
	}
	h := rootcnv.H1D(r)
	if h.Ann == nil {
		h.Ann = make(hbook.Annotation)
	}
	h.Ann["name"] = name
	if named, ok := obj.(root.Named); ok {
		h.Ann["title"] = named.Title()
	}
	return h, nil
}

// Save writes each histogram to f under its name.
func Save(f *groot.File, hs ...*hbook.H1D) error {
	for _, h := range hs {
		if err := f.Put(h.Name(), rhist.NewH1DFrom(h)); err != nil {
			return fmt.Errorf("could not write %q: %w", h.Name(), err)
		}
	}
	return nil
}

// WriteYODA writes the histograms to fname in YODA text format.
func WriteYODA(fname string, hs ...*hbook.H1D) error {
	var buf bytes.Buffer
	for _, h := range hs {
		raw, err := h.MarshalYODA()
		if err != nil {
			return fmt.Errorf("could not marshal %q to YODA: %w", h.Name(), err)
		}
		buf.Write(raw)
	}
	return os.WriteFile(fname, buf.Bytes(), 0644)
}

// Output selects the files written by MakeFits.
type Output struct {
	ROOT string // rebinned data, predictions and efficiencies
	YODA string // optional text copy
}

// MakeFits fits every named histogram of the ROOT file input. A histogram
// that is missing or fails to fit is logged and skipped; the returned error
// then joins every such failure while the results of the other
// distributions are still written.
func (s *Session) MakeFits(input string, names []string, out Output) (results []*Result, err error) {
	in, err := groot.Open(input)
	if err != nil {
		return nil, fmt.Errorf("could not open input file: %w", err)
	}
	defer in.Close()

	of, err := groot.Create(out.ROOT)
	if err != nil {
		return nil, fmt.Errorf("could not create output file: %w", err)
	}
	defer func() {
		if cerr := of.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("could not close output file: %w", cerr))
		}
	}()

	var (
		errs []error
		yoda []*hbook.H1D
	)
	for _, name := range names {
		raw, err := ReadH1D(in, name)
		if err != nil {
			logger.Error("%v", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("fitting %s (session %s)", name, s.ID)

		res, err := s.Fit(name, raw)
		if err != nil {
			logger.Error("%v", err)
			errs = append(errs, err)
			continue
		}
		if err := Save(of, res.Data, res.Pred, res.Effi); err != nil {
			return results, errors.Join(append(errs, err)...)
		}
		yoda = append(yoda, res.Data, res.Pred, res.Effi)
		results = append(results, res)
	}

	if out.YODA != "" {
		if err := WriteYODA(out.YODA, yoda...); err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
