// Package imop implements the Porter-Duff composition operations and the
// separable blend modes used for mixing a graphic element with its backdrop.
//
// It is mainly used to lay the detector diagnostics over a frame: the
// windows accepted by the cascade are painted on a transparent layer which
// gets composited on top of the original image.
package imop

import (
	"fmt"

	"github.com/esimov/redetect/utils"
)

const (
	Normal   = "normal"
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

var blendModes = []string{Normal, Darken, Lighten, Multiply, Screen, Overlay}

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (o *Blend) Set(opType string) error {
	if !utils.Contains(blendModes, opType) {
		return fmt.Errorf("unsupported blend mode: %q", opType)
	}
	o.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	return o.OpType
}

// Apply mixes a normalized source channel cs with the backdrop channel cb.
func (o *Blend) Apply(cs, cb float64) float64 {
	switch o.OpType {
	case Darken:
		return utils.Min(cs, cb)
	case Lighten:
		return utils.Max(cs, cb)
	case Multiply:
		return cs * cb
	case Screen:
		return cs + cb - cs*cb
	case Overlay:
		if cb <= 0.5 {
			return 2 * cs * cb
		}
		return 1 - 2*(1-cs)*(1-cb)
	}
	return cs
}
