package redetect

import (
	"image"
	"math"

	"github.com/esimov/redetect/utils"
	"gonum.org/v1/gonum/floats"
)

// NNClassifier is the last cascade stage. It compares a normalized patch
// against the stored positive and negative exemplars using normalized
// cross correlation.
type NNClassifier struct {
	Enabled bool
	// ThetaTP is the confidence a window needs to pass the stage; positives
	// at or below it are learned.
	ThetaTP float64
	// ThetaFP is the confidence at or above which a negative sample is learned.
	ThetaFP float64

	Positives [][]float64
	Negatives [][]float64
}

// NewNNClassifier returns a classifier with empty exemplar sets.
func NewNNClassifier(thetaTP, thetaFP float64) *NNClassifier {
	return &NNClassifier{
		Enabled: true,
		ThetaTP: thetaTP,
		ThetaFP: thetaFP,
	}
}

// NCC returns the normalized cross correlation of two equally sized
// buffers, in the [-1, 1] interval. A buffer with zero energy correlates
// with nothing.
func NCC(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return utils.Clamp(floats.Dot(a, b)/(na*nb), -1, 1)
}

func maxCorrelation(v []float64, set [][]float64) float64 {
	best := math.Inf(-1)
	for _, ex := range set {
		if c := NCC(v, ex); c > best {
			best = c
		}
	}
	return best
}

// Classify returns the relative similarity of a normalized patch:
// dN / (dN + dP) where dP and dN are the correlation distances to the
// closest positive and negative exemplars.
func (nn *NNClassifier) Classify(values []float64) float64 {
	if len(nn.Positives) == 0 {
		return 0
	}
	if len(nn.Negatives) == 0 {
		return 1
	}
	dP := 1 - maxCorrelation(values, nn.Positives)
	dN := 1 - maxCorrelation(values, nn.Negatives)
	if dN+dP == 0 {
		return 0
	}
	return dN / (dN + dP)
}

// ClassifyWindow normalizes window r of frame f and classifies it.
func (nn *NNClassifier) ClassifyWindow(f *Frame, r image.Rectangle) float64 {
	var buf PatchBuffer
	return nn.Classify(buf.Normalize(f, r))
}

// filter reports whether the window passes the last stage. buf is the
// caller's scratch buffer.
func (nn *NNClassifier) filter(f *Frame, w Window, buf *PatchBuffer) bool {
	if !nn.Enabled {
		return true
	}
	return nn.Classify(buf.Normalize(f, w.Bounds())) >= nn.ThetaTP
}

// Learn adds the surprising samples of a labeled batch to the exemplar
// sets: positives the classifier is not yet sure about and negatives it
// mistakes for the object. Stored exemplars never alias the patches.
func (nn *NNClassifier) Learn(patches []*Patch) {
	for _, p := range patches {
		values := p.Values()
		conf := nn.Classify(values)

		if p.Positive && conf <= nn.ThetaTP {
			nn.Positives = append(nn.Positives, append([]float64(nil), values...))
		} else if !p.Positive && conf >= nn.ThetaFP {
			nn.Negatives = append(nn.Negatives, append([]float64(nil), values...))
		}
	}
}

func (nn *NNClassifier) release() {
	nn.Positives = nil
	nn.Negatives = nil
}
