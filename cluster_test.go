package redetect

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClustering_NoWindows(t *testing.T) {
	n, _, ok := Clustering{Cutoff: 0.5}.Cluster(nil, nil)
	assert.Zero(t, n)
	assert.False(t, ok)
}

func TestClustering_SingleWindow(t *testing.T) {
	windows := []Window{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 7, Y: 3, Width: 12, Height: 9},
	}
	n, bb, ok := Clustering{Cutoff: 0.5}.Cluster(windows, []int{1})
	assert.Equal(t, 1, n)
	assert.True(t, ok)
	assert.Equal(t, windows[1].Bounds(), bb)
}

func TestClustering_DisjointWindows(t *testing.T) {
	windows := []Window{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 50, Y: 50, Width: 10, Height: 10},
	}
	n, _, ok := Clustering{Cutoff: 0.5}.Cluster(windows, []int{0, 1})
	assert.Equal(t, 2, n)
	assert.False(t, ok)
}

func TestClustering_OverlappingWindowsMerge(t *testing.T) {
	windows := []Window{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 1, Y: 0, Width: 10, Height: 10},
	}
	// IoU 90/110 > 1 - cutoff.
	n, bb, ok := Clustering{Cutoff: 0.5}.Cluster(windows, []int{0, 1})
	assert.Equal(t, 1, n)
	assert.True(t, ok)
	// Mean x 0.5 rounds away from zero.
	assert.Equal(t, image.Rect(1, 0, 11, 10), bb)
}

func TestClustering_MeanRectangle(t *testing.T) {
	windows := []Window{
		{X: 10, Y: 10, Width: 20, Height: 20},
		{X: 12, Y: 10, Width: 20, Height: 20},
		{X: 11, Y: 13, Width: 22, Height: 22},
	}
	n, bb, ok := Clustering{Cutoff: 0.5}.Cluster(windows, []int{0, 1, 2})
	assert.Equal(t, 1, n)
	assert.True(t, ok)
	// x = 11, y = 11, w = 20.67 -> 21, h = 21.
	assert.Equal(t, image.Rect(11, 11, 32, 32), bb)
}

func TestClustering_ChainsAndGroups(t *testing.T) {
	windows := []Window{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 100, Y: 100, Width: 10, Height: 10},
		{X: 1, Y: 0, Width: 10, Height: 10},
		{X: 101, Y: 101, Width: 10, Height: 10},
		{X: 2, Y: 0, Width: 10, Height: 10},
	}
	n, _, ok := Clustering{Cutoff: 0.5}.Cluster(windows, []int{0, 1, 2, 3, 4})
	assert.Equal(t, 2, n)
	assert.False(t, ok)

	// Two tight pairs form separate clusters first, then get relabeled
	// into one by the link between them.
	windows = []Window{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 1, Y: 0, Width: 10, Height: 10},
		{X: 3, Y: 0, Width: 10, Height: 10},
		{X: 4, Y: 0, Width: 10, Height: 10},
	}
	n, bb, ok := Clustering{Cutoff: 0.5}.Cluster(windows, []int{0, 1, 2, 3})
	assert.Equal(t, 1, n)
	assert.True(t, ok)
	assert.Equal(t, image.Rect(2, 0, 12, 10), bb)
}
