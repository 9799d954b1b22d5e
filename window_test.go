package redetect

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestGrid_SingleScale(t *testing.T) {
	g := NewGrid(GridOptions{
		ImgWidth: 12, ImgHeight: 12,
		ObjWidth: 10, ObjHeight: 10,
		MinScale: 0, MaxScale: 0,
		Shift:   0.1,
		MinSize: 5,
	})

	want := &Grid{
		Scales: []Scale{{Width: 10, Height: 10}},
		Windows: []Window{
			{X: 1, Y: 1, Width: 10, Height: 10},
		},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestGrid_StrideAndScaleIndex(t *testing.T) {
	g := NewGrid(GridOptions{
		ImgWidth: 31, ImgHeight: 21,
		ObjWidth: 10, ObjHeight: 10,
		MinScale: 0, MaxScale: 1,
		Shift:   0.5,
		MinSize: 5,
	})

	if diff := cmp.Diff([]Scale{{10, 10}, {12, 12}}, g.Scales); diff != "" {
		t.Errorf("scales mismatch (-want +got):\n%s", diff)
	}
	for _, w := range g.Windows {
		assert.Less(t, w.ScaleIndex, len(g.Scales))
		s := g.Scales[w.ScaleIndex]
		assert.Equal(t, s.Width, w.Width)
		assert.Equal(t, s.Height, w.Height)
		assert.True(t, w.Bounds().In(image.Rect(1, 1, 31, 21)))
	}

	// Scale 0: stride 5, x in {1,6,11,16,21}, y in {1,6,11}.
	assert.Equal(t, Window{X: 6, Y: 1, Width: 10, Height: 10}, g.Windows[1])
	assert.Equal(t, Window{X: 1, Y: 6, Width: 10, Height: 10}, g.Windows[5])
	// Scale 1: stride 6, x in {1,7,13,19}, y in {1,7}.
	assert.Len(t, g.Windows, 15+8)
	assert.Equal(t, Window{X: 1, Y: 1, Width: 12, Height: 12, ScaleIndex: 1}, g.Windows[15])
}

func TestGrid_DegenerateScalesAreSkipped(t *testing.T) {
	g := NewGrid(GridOptions{
		ImgWidth: 50, ImgHeight: 50,
		ObjWidth: 60, ObjHeight: 60,
		MinScale: 0, MaxScale: 2,
		Shift:   0.1,
		MinSize: 25,
	})
	assert.Empty(t, g.Windows)
	assert.Empty(t, g.Scales)

	g = NewGrid(GridOptions{
		ImgWidth: 50, ImgHeight: 50,
		ObjWidth: 10, ObjHeight: 10,
		MinScale: -2, MaxScale: 0,
		Shift:   0.1,
		MinSize: 25,
	})
	assert.Empty(t, g.Windows)
}

func TestGrid_MinimumStride(t *testing.T) {
	g := NewGrid(GridOptions{
		ImgWidth: 8, ImgHeight: 6,
		ObjWidth: 5, ObjHeight: 4,
		MinScale: 0, MaxScale: 0,
		Shift:   0.01,
		MinSize: 1,
	})
	// Stride clamps to one pixel: x in 1..3, y in 1..2.
	assert.Len(t, g.Windows, 6)
}

func TestGrid_IsDeterministic(t *testing.T) {
	opts := GridOptions{
		ImgWidth: 120, ImgHeight: 90,
		ObjWidth: 30, ObjHeight: 20,
		MinScale: -3, MaxScale: 3,
		Shift:   0.1,
		MinSize: 15,
	}
	if diff := cmp.Diff(NewGrid(opts), NewGrid(opts)); diff != "" {
		t.Errorf("grids differ (-a +b):\n%s", diff)
	}
}

func TestOverlap(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)

	assert.Equal(t, 1.0, Overlap(a, a))
	assert.Equal(t, 0.0, Overlap(a, image.Rect(20, 20, 30, 30)))
	assert.Equal(t, 0.0, Overlap(a, image.Rect(10, 0, 20, 10)))
	assert.InDelta(t, 50.0/150.0, Overlap(a, image.Rect(5, 0, 15, 10)), 1e-12)
	assert.Equal(t, 0.0, Overlap(image.Rectangle{}, image.Rectangle{}))

	g := &Grid{Windows: []Window{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 5, Y: 0, Width: 10, Height: 10}}}
	ov := g.Overlap(a)
	assert.Equal(t, []float64{1, 50.0 / 150.0}, ov)
}
