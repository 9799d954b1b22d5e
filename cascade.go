package redetect

import (
	"fmt"
	"image"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/esimov/redetect/utils"
)

// Cascade scans a multi-scale grid of windows and runs every window
// through the variance filter, the fern ensemble and the nearest neighbour
// classifier, cheapest stage first. The surviving windows are clustered
// into a single consensus box.
//
// Detect may be called from several goroutines; the calls are serialized.
// Learning waits for a running detection to finish and vice versa.
type Cascade struct {
	Params Params

	Variance   *VarianceFilter
	Ensemble   *Ensemble
	NN         *NNClassifier
	Clustering Clustering

	imgWidth, imgHeight int
	objWidth, objHeight int

	// mu guards the classifier state: detection is a reader, learning the writer.
	mu sync.RWMutex
	// detectMu serializes the per-frame state: integral images and result.
	detectMu sync.Mutex

	rng         *rand.Rand
	grid        *Grid
	result      *Result
	lastFrame   *Frame
	initialized bool
}

// NewCascade creates an uninitialized cascade. The random generator is
// used to draw the fern features; a nil rng is replaced by one seeded
// with p.Seed.
func NewCascade(p Params, rng *rand.Rand) *Cascade {
	if rng == nil {
		rng = rand.New(rand.NewPCG(p.Seed, p.Seed))
	}
	c := &Cascade{
		Params:     p,
		Variance:   NewVarianceFilter(),
		Ensemble:   NewEnsemble(p.NumTrees, p.NumFeatures),
		NN:         NewNNClassifier(p.ThetaTP, p.ThetaFP),
		Clustering: Clustering{Cutoff: p.ClusterCutoff},
		rng:        rng,
	}
	c.Variance.Enabled = p.UseVarianceFilter
	c.Ensemble.Enabled = p.UseEnsemble
	c.Ensemble.Blur = p.EnsembleBlur
	c.NN.Enabled = p.UseNNClassifier

	return c
}

// SetImageSize sets the size of the frames to be scanned. The cascade
// has to be initialized again afterwards.
func (c *Cascade) SetImageSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imgWidth, c.imgHeight = width, height
	c.initialized = false
}

// SetObjectSize sets the reference object size the scales derive from.
// The cascade has to be initialized again afterwards.
func (c *Cascade) SetObjectSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objWidth, c.objHeight = width, height
	c.initialized = false
}

// SetMinVar sets the variance threshold of the first stage.
func (c *Cascade) SetMinVar(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Variance.MinVar = v
}

// Init builds the window grid, draws the fern features and allocates the
// detection result. The learned exemplars are kept.
func (c *Cascade) Init() error {
	c.detectMu.Lock()
	defer c.detectMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.imgWidth <= 0 || c.imgHeight <= 0 || c.objWidth <= 0 || c.objHeight <= 0 {
		c.initialized = false
		return ErrNotConfigured
	}
	if err := c.Params.Validate(); err != nil {
		c.initialized = false
		return fmt.Errorf("cannot initialize cascade: %w", err)
	}

	c.grid = NewGrid(GridOptions{
		ImgWidth:  c.imgWidth,
		ImgHeight: c.imgHeight,
		ObjWidth:  c.objWidth,
		ObjHeight: c.objHeight,
		MinScale:  c.Params.MinScale,
		MaxScale:  c.Params.MaxScale,
		Shift:     c.Params.Shift,
		MinSize:   c.Params.MinSize,
	})
	c.Ensemble.init(c.grid.Scales, c.rng)
	c.result = newResult(len(c.grid.Windows), c.Ensemble.NumTrees)
	c.lastFrame = nil
	c.initialized = true

	return nil
}

// Initialized reports whether the cascade is ready to detect.
func (c *Cascade) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Release drops the grid, the feature tables and the learned exemplars.
func (c *Cascade) Release() {
	c.detectMu.Lock()
	defer c.detectMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = false
	c.grid = nil
	c.result = nil
	c.lastFrame = nil
	c.Ensemble.release()
	c.NN.release()
}

// Detect scans frame f. The returned result is owned by the cascade and
// is overwritten by the next call. An uninitialized cascade or a frame of
// the wrong size yields an invalid result.
func (c *Cascade) Detect(f *Frame) *Result {
	c.detectMu.Lock()
	defer c.detectMu.Unlock()

	res, _ := c.detect(f)
	return res
}

// detect runs the cascade; the caller must hold detectMu.
func (c *Cascade) detect(f *Frame) (*Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized {
		return &Result{}, ErrNotConfigured
	}
	res := c.result
	res.reset()
	c.lastFrame = nil

	if f == nil || f.Width != c.imgWidth || f.Height != c.imgHeight {
		return res, ErrFrameSize
	}

	c.Variance.nextIteration(f)
	c.Ensemble.nextIteration(f)
	c.scan(f, res)

	n, bb, ok := c.Clustering.Cluster(c.grid.Windows, res.ConfidentIndices)
	res.NumClusters = n
	if ok {
		res.setDetection(bb)
	}
	res.Valid = true
	c.lastFrame = f

	return res, nil
}

// stageCounts collects the outcome of one worker's share of the grid.
type stageCounts struct {
	varCount, ensCount, nnCount int
	confident                   []int
}

// scan evaluates the windows in contiguous chunks, one goroutine per
// chunk. Each worker writes only its own result slots.
func (c *Cascade) scan(f *Frame, res *Result) {
	windows := c.grid.Windows
	if len(windows) == 0 {
		return
	}
	workers := c.Params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunk := (len(windows) + workers - 1) / workers
	counts := make([]stageCounts, workers)

	var wg sync.WaitGroup
	for wi := 0; wi < workers; wi++ {
		lo := wi * chunk
		if lo >= len(windows) {
			break
		}
		hi := min(lo+chunk, len(windows))

		wg.Add(1)
		go func(sc *stageCounts, lo, hi int) {
			defer wg.Done()

			var buf PatchBuffer
			for i := lo; i < hi; i++ {
				w := windows[i]
				if !c.Variance.filter(i, w, res) {
					res.Posteriors[i] = 0
					sc.varCount++
					continue
				}
				if !c.Ensemble.filter(i, w, res) {
					sc.ensCount++
					continue
				}
				if !c.NN.filter(f, w, &buf) {
					sc.nnCount++
					continue
				}
				sc.confident = append(sc.confident, i)
			}
		}(&counts[wi], lo, hi)
	}
	wg.Wait()

	for _, sc := range counts {
		res.VarCount += sc.varCount
		res.EnsCount += sc.ensCount
		res.NNClassCount += sc.nnCount
		res.ConfidentIndices = append(res.ConfidentIndices, sc.confident...)
	}
}

// Learn feeds a batch of labeled patches to the nearest neighbour classifier.
func (c *Cascade) Learn(patches []*Patch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NN.Learn(patches)
}

// LearnEnsemble trains the fern ensemble with window w of frame f.
// The frame must match the configured image size.
func (c *Cascade) LearnEnsemble(f *Frame, w Window, positive bool, amount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return ErrNotConfigured
	}
	if f == nil || f.Width != c.imgWidth || f.Height != c.imgHeight {
		return ErrFrameSize
	}
	if w.ScaleIndex < 0 || w.ScaleIndex >= len(c.grid.Scales) {
		return fmt.Errorf("window scale %d is not part of the grid", w.ScaleIndex)
	}
	s := c.grid.Scales[w.ScaleIndex]
	if r := image.Rect(w.X, w.Y, w.X+s.Width, w.Y+s.Height); !r.In(f.Bounds()) {
		return fmt.Errorf("window %s is outside of the frame: %w", utils.FormatRect(r), ErrFrameSize)
	}
	c.Ensemble.Learn(f, w, positive, amount)
	return nil
}

// WindowOverlap returns the overlap of every grid window with bb.
func (c *Cascade) WindowOverlap(bb image.Rectangle) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.grid == nil {
		return nil
	}
	return c.grid.Overlap(bb)
}

// NumWindows returns the number of windows in the grid.
func (c *Cascade) NumWindows() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.grid == nil {
		return 0
	}
	return len(c.grid.Windows)
}

// Window returns the grid window with index i, or the zero Window when
// the index is out of range or the grid was released.
func (c *Cascade) Window(i int) Window {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.grid == nil || i < 0 || i >= len(c.grid.Windows) {
		return Window{}
	}
	return c.grid.Windows[i]
}

// Scales returns the window sizes retained by the grid.
func (c *Cascade) Scales() []Scale {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.grid == nil {
		return nil
	}
	return c.grid.Scales
}

// Result returns the result of the last detection.
func (c *Cascade) Result() *Result {
	c.detectMu.Lock()
	defer c.detectMu.Unlock()
	if c.result == nil {
		return &Result{}
	}
	return c.result
}
