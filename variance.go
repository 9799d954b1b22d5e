package redetect

import (
	"image"

	"github.com/esimov/redetect/utils"
)

// VarianceFilter is the first cascade stage. It rejects flat, textureless
// windows whose pixel variance is lower than MinVar. MinVar is usually set
// to half the variance of the object's initial bounding box.
type VarianceFilter struct {
	Enabled bool
	MinVar  float64

	integral *IntegralImage
}

// NewVarianceFilter creates an enabled variance filter which accepts any window.
func NewVarianceFilter() *VarianceFilter {
	return &VarianceFilter{
		Enabled:  true,
		integral: &IntegralImage{},
	}
}

// nextIteration recomputes the integral images for a new frame.
func (vf *VarianceFilter) nextIteration(f *Frame) {
	vf.integral.Compute(f)
}

// Variance returns the pixel variance of r in the current frame.
func (vf *VarianceFilter) Variance(r image.Rectangle) float64 {
	sum, sqSum := vf.integral.RectSum(r)
	area := float64(r.Dx() * r.Dy())
	mean := utils.SafeDiv(sum, area)
	meanSq := utils.SafeDiv(sqSum, area)

	// Round-off may push the difference slightly below zero for flat regions.
	return utils.Max(0, meanSq-mean*mean)
}

// filter records the variance of window idx and reports whether the
// window is textured enough to be handed to the next stage.
func (vf *VarianceFilter) filter(idx int, w Window, res *Result) bool {
	if !vf.Enabled {
		return true
	}
	v := vf.Variance(w.Bounds())
	res.Variances[idx] = v
	return v >= vf.MinVar
}
