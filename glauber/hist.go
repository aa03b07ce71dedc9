package glauber

import (
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"
)

// Edges returns the len(bins)+1 bin edges of h.
func Edges(h *hbook.H1D) []float64 {
	bins := h.Binning.Bins
	edges := make([]float64, len(bins)+1)
	for i := range bins {
		edges[i] = bins[i].XMin()
	}
	edges[len(bins)] = bins[len(bins)-1].XMax()
	return edges
}

// NewLike returns an empty histogram with the binning of h.
func NewLike(h *hbook.H1D) *hbook.H1D {
	return hbook.NewH1DFromEdges(Edges(h))
}

// Content returns the sum of weights of bin i.
func Content(h *hbook.H1D, i int) float64 {
	return h.Binning.Bins[i].SumW()
}

// Error returns the statistical error of bin i.
func Error(h *hbook.H1D, i int) float64 {
	return math.Sqrt(h.Binning.Bins[i].SumW2())
}

// FindBin returns the index of the bin containing x, -1 for underflow and
// h.Len() for overflow.
func FindBin(h *hbook.H1D, x float64) int {
	bins := h.Binning.Bins
	if len(bins) == 0 || x < bins[0].XMin() {
		return -1
	}
	if x >= bins[len(bins)-1].XMax() {
		return len(bins)
	}
	return sort.Search(len(bins), func(i int) bool { return bins[i].XMax() > x })
}

// Integral sums the bin contents in the inclusive index range [lo, hi],
// clamped to the histogram.
func Integral(h *hbook.H1D, lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > h.Len()-1 {
		hi = h.Len() - 1
	}
	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += h.Binning.Bins[i].SumW()
	}
	return sum
}

// SameBinning reports whether a and b have identical edges.
func SameBinning(a, b *hbook.H1D) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Binning.Bins {
		if a.Binning.Bins[i].XMin() != b.Binning.Bins[i].XMin() ||
			a.Binning.Bins[i].XMax() != b.Binning.Bins[i].XMax() {
			return false
		}
	}
	return true
}

// SetBins overwrites every bin of h with the given contents and errors.
func SetBins(h *hbook.H1D, contents, errs []float64) {
	if len(contents) != h.Len() || len(errs) != h.Len() {
		panic("glauber: bin count mismatch")
	}
	for i := range h.Binning.Bins {
		b := &h.Binning.Bins[i]
		x := b.XMid()
		c, e2 := contents[i], errs[i]*errs[i]
		b.Dist.Dist.SumW = c
		b.Dist.Dist.SumW2 = e2
		b.Dist.Dist.N = 0
		if e2 > 0 {
			b.Dist.Dist.N = int64(math.Round(c * c / e2))
		}
		b.Dist.Stats.SumWX = c * x
		b.Dist.Stats.SumWX2 = c * x * x
	}
	resync(h)
}

// resync recomputes the global distribution of h from its bins and outflows.
func resync(h *hbook.H1D) {
	var d hbook.Dist1D
	add := func(o hbook.Dist1D) {
		d.Dist.N += o.Dist.N
		d.Dist.SumW += o.Dist.SumW
		d.Dist.SumW2 += o.Dist.SumW2
		d.Stats.SumWX += o.Stats.SumWX
		d.Stats.SumWX2 += o.Stats.SumWX2
	}
	for _, o := range h.Binning.Outflows {
		add(o)
	}
	for i := range h.Binning.Bins {
		add(h.Binning.Bins[i].Dist)
	}
	h.Binning.Dist = d
}

// Clone returns a deep copy of the in-range content of h, keeping its
// annotations.
func Clone(h *hbook.H1D) *hbook.H1D {
	c := NewLike(h)
	contents := make([]float64, h.Len())
	errs := make([]float64, h.Len())
	for i := range contents {
		contents[i] = Content(h, i)
		errs[i] = Error(h, i)
	}
	SetBins(c, contents, errs)
	copyAnn(c, h)
	return c
}

func copyAnn(dst, src *hbook.H1D) {
	if dst.Ann == nil {
		dst.Ann = make(hbook.Annotation)
	}
	for k, v := range src.Ann {
		dst.Ann[k] = v
	}
}

// Rebin merges groups of n adjacent bins. Trailing bins that do not fill a
// complete group are dropped.
func Rebin(h *hbook.H1D, n int) (*hbook.H1D, error) {
	if n < 1 {
		return nil, fmt.Errorf("glauber: invalid rebin factor %d", n)
	}
	if n == 1 {
		return Clone(h), nil
	}
	nbins := h.Len() / n
	if nbins == 0 {
		return nil, fmt.Errorf("glauber: rebin factor %d larger than %d bins", n, h.Len())
	}
	edges := Edges(h)
	merged := make([]float64, nbins+1)
	contents := make([]float64, nbins)
	errs := make([]float64, nbins)
	for i := 0; i < nbins; i++ {
		merged[i] = edges[i*n]
		var sumw, sumw2 float64
		for j := i * n; j < (i+1)*n; j++ {
			sumw += h.Binning.Bins[j].SumW()
			sumw2 += h.Binning.Bins[j].SumW2()
		}
		contents[i] = sumw
		errs[i] = math.Sqrt(sumw2)
	}
	merged[nbins] = edges[nbins*n]

	r := hbook.NewH1DFromEdges(merged)
	SetBins(r, contents, errs)
	copyAnn(r, h)
	return r, nil
}

// Annotate sets the name and title carried into output files.
func Annotate(h *hbook.H1D, name, title string) {
	if h.Ann == nil {
		h.Ann = make(hbook.Annotation)
	}
	h.Ann["name"] = name
	h.Ann["title"] = title
}
