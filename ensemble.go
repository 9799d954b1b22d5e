package redetect

import (
	"image"
	"math/rand/v2"

	"github.com/esimov/redetect/utils"
)

// ensembleThreshold is the confidence a window must reach to pass the ensemble.
const ensembleThreshold = 0.5

// Ensemble is a forest of random ferns. Each tree compares NumFeatures
// random pixel pairs inside the window; the outcomes form a binary code
// which indexes the tree's posterior table.
type Ensemble struct {
	Enabled     bool
	NumTrees    int
	NumFeatures int
	// Blur is the sigma of the gaussian smoothing applied to the frame
	// before the pixel comparisons. Zero disables the smoothing.
	Blur float64

	numIndices int
	scales     []Scale
	// features holds the random <x1,y1,x2,y2> unit coordinates of every
	// tree and feature.
	features [][][4]float64
	// offsets[scale][tree][feature] is the scaled pixel pair of a feature.
	offsets [][][][2]image.Point

	posteriors [][]float64
	positives  [][]int
	negatives  [][]int

	frame *Frame
}

// NewEnsemble creates an ensemble of numTrees trees with numFeatures features each.
func NewEnsemble(numTrees, numFeatures int) *Ensemble {
	return &Ensemble{
		Enabled:     true,
		NumTrees:    numTrees,
		NumFeatures: numFeatures,
	}
}

// init draws the feature locations and clears the posterior tables.
// It has to run again whenever the scales change.
func (e *Ensemble) init(scales []Scale, rng *rand.Rand) {
	e.numIndices = 1 << e.NumFeatures
	e.scales = scales

	e.initFeatureLocations(rng)
	e.initFeatureOffsets()
	e.initPosteriors()
}

func (e *Ensemble) release() {
	e.features = nil
	e.offsets = nil
	e.posteriors = nil
	e.positives = nil
	e.negatives = nil
	e.frame = nil
}

func (e *Ensemble) initFeatureLocations(rng *rand.Rand) {
	e.features = make([][][4]float64, e.NumTrees)
	for t := range e.features {
		e.features[t] = make([][4]float64, e.NumFeatures)
		for f := range e.features[t] {
			for k := 0; k < 4; k++ {
				e.features[t][f][k] = rng.Float64()
			}
		}
	}
}

// initFeatureOffsets maps the unit feature coordinates into the local
// coordinate space of every scale, relative to the window's top-left corner.
func (e *Ensemble) initFeatureOffsets() {
	e.offsets = make([][][][2]image.Point, len(e.scales))
	for s, scale := range e.scales {
		w := float64(scale.Width - 1)
		h := float64(scale.Height - 1)
		e.offsets[s] = make([][][2]image.Point, e.NumTrees)
		for t := 0; t < e.NumTrees; t++ {
			e.offsets[s][t] = make([][2]image.Point, e.NumFeatures)
			for f, ft := range e.features[t] {
				e.offsets[s][t][f] = [2]image.Point{
					{X: int(w * ft[0]), Y: int(h * ft[1])},
					{X: int(w * ft[2]), Y: int(h * ft[3])},
				}
			}
		}
	}
}

func (e *Ensemble) initPosteriors() {
	e.posteriors = make([][]float64, e.NumTrees)
	e.positives = make([][]int, e.NumTrees)
	e.negatives = make([][]int, e.NumTrees)
	for t := 0; t < e.NumTrees; t++ {
		e.posteriors[t] = make([]float64, e.numIndices)
		e.positives[t] = make([]int, e.numIndices)
		e.negatives[t] = make([]int, e.numIndices)
	}
}

// nextIteration keeps a reference to the frame the features are computed on.
func (e *Ensemble) nextIteration(f *Frame) {
	if !e.Enabled {
		return
	}
	e.frame = f.Blur(e.Blur)
}

// fernCode computes the binary code of one tree for a window of frame f.
func (e *Ensemble) fernCode(f *Frame, w Window, tree int) int {
	code := 0
	for _, pair := range e.offsets[w.ScaleIndex][tree] {
		code <<= 1
		p0 := f.Value(w.X+pair[0].X, w.Y+pair[0].Y)
		p1 := f.Value(w.X+pair[1].X, w.Y+pair[1].Y)
		if p0 > p1 {
			code |= 1
		}
	}
	return code
}

// FeatureVector fills dst with the per tree codes of window w in frame f.
// dst must hold at least NumTrees values.
func (e *Ensemble) FeatureVector(f *Frame, w Window, dst []int) {
	for t := 0; t < e.NumTrees; t++ {
		dst[t] = e.fernCode(f, w, t)
	}
}

// Confidence sums the tree posteriors addressed by codes.
func (e *Ensemble) Confidence(codes []int) float64 {
	var conf float64
	for t := 0; t < e.NumTrees; t++ {
		conf += e.posteriors[t][codes[t]]
	}
	return conf
}

// Posterior returns the posterior stored at leaf code of tree t.
func (e *Ensemble) Posterior(t, code int) float64 {
	return e.posteriors[t][code]
}

// classify computes the feature vector and the confidence of window idx
// on the current frame and stores them into the result.
func (e *Ensemble) classify(idx int, w Window, res *Result) float64 {
	codes := res.FeatureCodes(idx)
	e.FeatureVector(e.frame, w, codes)
	res.Posteriors[idx] = e.Confidence(codes)
	return res.Posteriors[idx]
}

// filter reports whether window idx is more likely to be the object than not.
func (e *Ensemble) filter(idx int, w Window, res *Result) bool {
	if !e.Enabled {
		return true
	}
	return e.classify(idx, w, res) >= ensembleThreshold
}

// updatePosterior adds amount to a leaf counter and refreshes its posterior.
func (e *Ensemble) updatePosterior(t, code int, positive bool, amount int) {
	if positive {
		e.positives[t][code] += amount
	} else {
		e.negatives[t][code] += amount
	}
	pos := float64(e.positives[t][code])
	total := pos + float64(e.negatives[t][code])
	e.posteriors[t][code] = utils.SafeDiv(pos, total) / float64(e.NumTrees)
}

// LearnCodes updates the posteriors with a labeled feature vector. Only
// misclassified samples are learned: positives below the threshold and
// negatives at or above it.
func (e *Ensemble) LearnCodes(codes []int, positive bool, amount int) {
	if !e.Enabled {
		return
	}
	conf := e.Confidence(codes)
	if (positive && conf < ensembleThreshold) || (!positive && conf >= ensembleThreshold) {
		for t := 0; t < e.NumTrees; t++ {
			e.updatePosterior(t, codes[t], positive, amount)
		}
	}
}

// Learn recomputes the feature vector of window w in frame f and learns it
// with the given label. The frame is smoothed the same way as during detection.
func (e *Ensemble) Learn(f *Frame, w Window, positive bool, amount int) {
	if !e.Enabled {
		return
	}
	codes := make([]int, e.NumTrees)
	e.FeatureVector(f.Blur(e.Blur), w, codes)
	e.LearnCodes(codes, positive, amount)
}
