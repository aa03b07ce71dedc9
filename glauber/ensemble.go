package glauber

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// Event is one geometric Glauber Monte-Carlo collision.
type Event struct {
	Npart float64 // participant nucleons
	Ncoll float64 // binary nucleon-nucleon collisions
	B     float64 // impact parameter (fm)
	Taa   float64 // nuclear overlap function (1/mb)
}

// Ensemble is an immutable set of Glauber events.
type Ensemble []Event

// Branch names of the Glauber ntuple.
const (
	BranchNpart = "Npart"
	BranchNcoll = "Ncoll"
	BranchB     = "B"
	BranchTaa   = "tAA"
	BranchNtot  = "ntot"
)

// LoadEnsemble reads at most max events (all when max <= 0) from the
// ntuple named tree in the ROOT file fname.
func LoadEnsemble(fname, tree string, max int64) (Ensemble, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open Glauber file: %w", err)
	}
	defer f.Close()

	obj, err := f.Get(tree)
	if err != nil {
		return nil, fmt.Errorf("could not find Glauber ntuple %q: %w", tree, err)
	}
	t, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("object %q is a %T, not a tree", tree, obj)
	}
	return ReadEnsemble(t, max)
}

// ReadEnsemble reads float32 Npart, Ncoll, B and tAA branches from t.
func ReadEnsemble(t rtree.Tree, max int64) (Ensemble, error) {
	n := t.Entries()
	if max > 0 && max < n {
		n = max
	}

	var npart, ncoll, b, taa float32
	rvars := []rtree.ReadVar{
		{Name: BranchNpart, Value: &npart},
		{Name: BranchNcoll, Value: &ncoll},
		{Name: BranchB, Value: &b},
		{Name: BranchTaa, Value: &taa},
	}
	r, err := rtree.NewReader(t, rvars, rtree.WithRange(0, n))
	if err != nil {
		return nil, fmt.Errorf("could not create ntuple reader: %w", err)
	}
	defer r.Close()

	evts := make(Ensemble, 0, n)
	err = r.Read(func(rtree.RCtx) error {
		evts = append(evts, Event{
			Npart: float64(npart),
			Ncoll: float64(ncoll),
			B:     float64(b),
			Taa:   float64(taa),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read Glauber ntuple: %w", err)
	}
	return evts, nil
}

// WriteEnsemble stores evts as an ntuple named tree in a new ROOT file.
func WriteEnsemble(fname, tree string, evts Ensemble) (err error) {
	f, err := groot.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create Glauber file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close Glauber file: %w", cerr)
		}
	}()

	var row struct{ Npart, Ncoll, B, Taa float32 }
	wvars := []rtree.WriteVar{
		{Name: BranchNpart, Value: &row.Npart},
		{Name: BranchNcoll, Value: &row.Ncoll},
		{Name: BranchB, Value: &row.B},
		{Name: BranchTaa, Value: &row.Taa},
	}
	w, err := rtree.NewWriter(f, tree, wvars)
	if err != nil {
		return fmt.Errorf("could not create ntuple writer: %w", err)
	}
	for i, e := range evts {
		row.Npart = float32(e.Npart)
		row.Ncoll = float32(e.Ncoll)
		row.B = float32(e.B)
		row.Taa = float32(e.Taa)
		if _, err := w.Write(); err != nil {
			w.Close()
			return fmt.Errorf("could not write event %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("could not close ntuple writer: %w", err)
	}
	return nil
}

// SideTable receives one row per mixed event when a prediction is persisted.
type SideTable interface {
	Add(e Event, ntot int) error
}

// NtupleWriter persists mixed events to a "gnt" ntuple.
type NtupleWriter struct {
	f   *groot.File
	w   rtree.Writer
	row struct{ Npart, Ncoll, B, Taa, Ntot float32 }
}

// CreateNtuple opens a new ROOT file holding the side ntuple.
func CreateNtuple(fname string) (*NtupleWriter, error) {
	f, err := groot.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("could not create side ntuple file: %w", err)
	}
	nt := &NtupleWriter{f: f}
	wvars := []rtree.WriteVar{
		{Name: BranchNpart, Value: &nt.row.Npart},
		{Name: BranchNcoll, Value: &nt.row.Ncoll},
		{Name: BranchB, Value: &nt.row.B},
		{Name: BranchTaa, Value: &nt.row.Taa},
		{Name: BranchNtot, Value: &nt.row.Ntot},
	}
	nt.w, err = rtree.NewWriter(f, "gnt", wvars)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not create side ntuple: %w", err)
	}
	return nt, nil
}

func (nt *NtupleWriter) Add(e Event, ntot int) error {
	nt.row.Npart = float32(e.Npart)
	nt.row.Ncoll = float32(e.Ncoll)
	nt.row.B = float32(e.B)
	nt.row.Taa = float32(e.Taa)
	nt.row.Ntot = float32(ntot)
	_, err := nt.w.Write()
	return err
}

// Close flushes the ntuple and closes its file.
func (nt *NtupleWriter) Close() error {
	werr := nt.w.Close()
	ferr := nt.f.Close()
	if werr != nil {
		return fmt.Errorf("could not close side ntuple: %w", werr)
	}
	return ferr
}
