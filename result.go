package redetect

import "image"

// Result is the per-frame output of the detector. Its buffers are sized
// once when the cascade is initialized and reused for every frame, so a
// result is only valid until the next call to Detect.
type Result struct {
	Valid bool

	// Variances and Posteriors hold one value per window.
	Variances  []float64
	Posteriors []float64
	// FeatureVectors holds NumTrees fern codes per window.
	FeatureVectors []int

	// ConfidentIndices lists, in window order, the windows which passed
	// every stage.
	ConfidentIndices []int
	NumClusters      int
	// DetectorBB is the consensus box, set only when a single cluster formed.
	DetectorBB *image.Rectangle

	// Windows rejected by the variance, ensemble and NN stages.
	VarCount     int
	EnsCount     int
	NNClassCount int

	numTrees int
	bb       image.Rectangle
}

func newResult(numWindows, numTrees int) *Result {
	return &Result{
		Variances:        make([]float64, numWindows),
		Posteriors:       make([]float64, numWindows),
		FeatureVectors:   make([]int, numWindows*numTrees),
		ConfidentIndices: make([]int, 0, 100),
		numTrees:         numTrees,
	}
}

// reset clears the per-frame fields.
func (r *Result) reset() {
	r.Valid = false
	clear(r.Variances)
	clear(r.Posteriors)
	clear(r.FeatureVectors)
	r.ConfidentIndices = r.ConfidentIndices[:0]
	r.NumClusters = 0
	r.DetectorBB = nil
	r.VarCount, r.EnsCount, r.NNClassCount = 0, 0, 0
}

// FeatureCodes returns the fern codes of window i. The slice aliases the
// result buffer.
func (r *Result) FeatureCodes(i int) []int {
	return r.FeatureVectors[i*r.numTrees : (i+1)*r.numTrees]
}

// NumConfident returns the number of windows which passed all stages.
func (r *Result) NumConfident() int {
	return len(r.ConfidentIndices)
}

func (r *Result) setDetection(bb image.Rectangle) {
	r.bb = bb
	r.DetectorBB = &r.bb
}
