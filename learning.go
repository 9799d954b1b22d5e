package redetect

import (
	"fmt"
	"image"
	"sort"
)

// learningSamples holds the windows selected as training samples for one frame.
type learningSamples struct {
	positives   []int
	ensNegative []int
	nnNegative  []int
}

// positiveWindows returns the windows overlapping bb by more than the
// positive threshold, best overlap first, capped at MaxPositives.
func (c *Cascade) positiveWindows(overlap []float64) []int {
	var idx []int
	for i, ov := range overlap {
		if ov > c.Params.PositiveOverlap {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return overlap[idx[i]] > overlap[idx[j]]
	})
	if len(idx) > c.Params.MaxPositives {
		idx = idx[:c.Params.MaxPositives]
	}
	return idx
}

// Bootstrap trains the detector on the first frame, where the object is
// known to be inside bb. The variance threshold is set to half the
// variance of the object patch. Windows overlapping bb become positive
// samples of the ensemble; textured windows far from bb are its negative
// samples, and a random subset of them trains the nearest neighbour
// classifier together with the object patch.
func (c *Cascade) Bootstrap(f *Frame, bb image.Rectangle) error {
	c.detectMu.Lock()
	defer c.detectMu.Unlock()

	// Every window has to reach the ensemble so its fern codes get computed.
	c.mu.Lock()
	minVar := c.Variance.MinVar
	c.Variance.MinVar = 0
	c.mu.Unlock()

	res, err := c.detect(f)
	if err != nil {
		c.SetMinVar(minVar)
		return fmt.Errorf("bootstrap: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	objPatch := NewPatch(f, bb, true)
	c.Variance.MinVar = objPatch.Variance() / 2

	overlap := c.grid.Overlap(bb)
	var negatives []int
	for i, ov := range overlap {
		if ov >= c.Params.NegativeOverlap {
			continue
		}
		if !c.Variance.Enabled || res.Variances[i] > c.Variance.MinVar {
			c.Ensemble.LearnCodes(res.FeatureCodes(i), false, 1)
			negatives = append(negatives, i)
		}
	}
	for _, i := range c.positiveWindows(overlap) {
		c.learnPositiveWindow(i, res)
	}

	c.rng.Shuffle(len(negatives), func(i, j int) {
		negatives[i], negatives[j] = negatives[j], negatives[i]
	})
	if len(negatives) > c.Params.MaxNegatives {
		negatives = negatives[:c.Params.MaxNegatives]
	}

	patches := make([]*Patch, 0, len(negatives)+1)
	patches = append(patches, objPatch)
	for _, i := range negatives {
		patches = append(patches, NewPatch(f, c.grid.Windows[i].Bounds(), false))
	}
	c.NN.Learn(patches)

	return nil
}

// Update retrains the detector on frame f, where the object is believed
// to be inside bb. The frame is scanned again unless it was the subject
// of the last detection. Only windows the classifiers still find
// ambiguous are used as negative samples.
func (c *Cascade) Update(f *Frame, bb image.Rectangle) error {
	c.detectMu.Lock()
	defer c.detectMu.Unlock()

	res := c.result
	if res == nil || !res.Valid || c.lastFrame != f {
		var err error
		if res, err = c.detect(f); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	overlap := c.grid.Overlap(bb)
	samples := c.selectSamples(overlap, res)

	for _, i := range samples.ensNegative {
		c.Ensemble.LearnCodes(res.FeatureCodes(i), false, 1)
	}
	for _, i := range samples.positives {
		c.learnPositiveWindow(i, res)
	}

	patches := make([]*Patch, 0, len(samples.nnNegative)+1)
	patches = append(patches, NewPatch(f, bb, true))
	for _, i := range samples.nnNegative {
		patches = append(patches, NewPatch(f, c.grid.Windows[i].Bounds(), false))
	}
	c.NN.Learn(patches)

	// The posteriors no longer match the stored result.
	res.Valid = false

	return nil
}

func (c *Cascade) selectSamples(overlap []float64, res *Result) learningSamples {
	s := learningSamples{positives: c.positiveWindows(overlap)}
	for i, ov := range overlap {
		if ov >= c.Params.NegativeOverlap {
			continue
		}
		if res.Posteriors[i] > c.Params.EnsembleNegPosterior {
			s.ensNegative = append(s.ensNegative, i)
		}
		if res.Posteriors[i] > c.Params.NNNegPosterior {
			s.nnNegative = append(s.nnNegative, i)
		}
	}
	return s
}

// learnPositiveWindow trains the ensemble with window i as a positive
// sample. The codes are recomputed since windows rejected by the variance
// filter never had them evaluated.
func (c *Cascade) learnPositiveWindow(i int, res *Result) {
	if !c.Ensemble.Enabled {
		return
	}
	codes := res.FeatureCodes(i)
	c.Ensemble.FeatureVector(c.Ensemble.frame, c.grid.Windows[i], codes)
	c.Ensemble.LearnCodes(codes, true, 1)
}
