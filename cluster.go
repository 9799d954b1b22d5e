package redetect

import (
	"image"
	"math"
	"sort"
)

// Clustering groups the confident windows by overlap using greedy single
// linkage on the 1 - IoU distance.
type Clustering struct {
	Cutoff float64
}

type windowPair struct {
	a, b int
	dist float64
}

// Cluster returns the number of clusters formed by the confident windows.
// The consensus box, the rounded mean of the windows, is only reported
// when all of them fall into a single cluster.
func (c Clustering) Cluster(windows []Window, confident []int) (int, image.Rectangle, bool) {
	switch len(confident) {
	case 0:
		return 0, image.Rectangle{}, false
	case 1:
		return 1, windows[confident[0]].Bounds(), true
	}

	n := len(confident)
	pairs := make([]windowPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ov := Overlap(windows[confident[i]].Bounds(), windows[confident[j]].Bounds())
			pairs = append(pairs, windowPair{a: i, b: j, dist: 1 - ov})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].dist < pairs[j].dist
	})

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	nextLabel := 0
	newLabel := func() int {
		nextLabel++
		return nextLabel - 1
	}

	for _, p := range pairs {
		la, lb := labels[p.a], labels[p.b]
		near := p.dist < c.Cutoff

		switch {
		case la == -1 && lb == -1:
			if near {
				l := newLabel()
				labels[p.a], labels[p.b] = l, l
			} else {
				labels[p.a] = newLabel()
				labels[p.b] = newLabel()
			}
		case la == -1:
			if near {
				labels[p.a] = lb
			} else {
				labels[p.a] = newLabel()
			}
		case lb == -1:
			if near {
				labels[p.b] = la
			} else {
				labels[p.b] = newLabel()
			}
		case la != lb && near:
			for i, l := range labels {
				if l == lb {
					labels[i] = la
				}
			}
		}
	}

	distinct := make(map[int]struct{})
	for _, l := range labels {
		distinct[l] = struct{}{}
	}
	if len(distinct) != 1 {
		return len(distinct), image.Rectangle{}, false
	}
	return 1, meanRect(windows, confident), true
}

// meanRect computes the element-wise rounded mean of the window geometries.
func meanRect(windows []Window, indices []int) image.Rectangle {
	var x, y, w, h float64
	for _, idx := range indices {
		win := windows[idx]
		x += float64(win.X)
		y += float64(win.Y)
		w += float64(win.Width)
		h += float64(win.Height)
	}
	n := float64(len(indices))
	mx, my := int(math.Round(x/n)), int(math.Round(y/n))
	return image.Rect(mx, my, mx+int(math.Round(w/n)), my+int(math.Round(h/n)))
}
