package redetect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotConfigured is returned by Init when the image or the object size is unknown.
	ErrNotConfigured = errors.New("image and object dimensions must be set before initialization")
	// ErrFrameSize is reported when a frame does not match the configured image size.
	ErrFrameSize = errors.New("frame size does not match the configured image size")
)

// maxParamsFileSize limits the size of a parameters file.
const maxParamsFileSize = 1 << 20

// maxFeatures bounds the fern depth. Each tree keeps three tables of
// 2^NumFeatures entries, so 16 features cost 1.5 MB per tree.
const maxFeatures = 16

// Params holds the detector tuning parameters.
type Params struct {
	// Window grid
	MinScale int     `json:"min_scale"`
	MaxScale int     `json:"max_scale"`
	Shift    float64 `json:"shift"`
	MinSize  int     `json:"min_size"`

	// Cascade stages
	UseVarianceFilter bool    `json:"use_variance_filter"`
	UseEnsemble       bool    `json:"use_ensemble"`
	UseNNClassifier   bool    `json:"use_nn_classifier"`
	NumTrees          int     `json:"num_trees"`
	// NumFeatures is the fern depth, at most 16.
	NumFeatures       int     `json:"num_features"`
	EnsembleBlur      float64 `json:"ensemble_blur"`
	ThetaTP           float64 `json:"theta_tp"`
	ThetaFP           float64 `json:"theta_fp"`
	ClusterCutoff     float64 `json:"cluster_cutoff"`

	// Learning sample selection
	PositiveOverlap      float64 `json:"positive_overlap"`
	NegativeOverlap      float64 `json:"negative_overlap"`
	MaxPositives         int     `json:"max_positives"`
	MaxNegatives         int     `json:"max_negatives"`
	EnsembleNegPosterior float64 `json:"ensemble_neg_posterior"`
	NNNegPosterior       float64 `json:"nn_neg_posterior"`

	// Workers is the number of goroutines scanning the grid.
	// Zero uses one worker per CPU.
	Workers int `json:"workers"`
	// Seed feeds the random generator of the fern features.
	Seed uint64 `json:"seed"`
}

// DefaultParams returns the default detector parameters.
func DefaultParams() Params {
	return Params{
		MinScale: -10,
		MaxScale: 10,
		Shift:    0.1,
		MinSize:  25,

		UseVarianceFilter: true,
		UseEnsemble:       true,
		UseNNClassifier:   true,
		NumTrees:          10,
		NumFeatures:       13,
		ThetaTP:           0.65,
		ThetaFP:           0.5,
		ClusterCutoff:     0.5,

		PositiveOverlap:      0.6,
		NegativeOverlap:      0.2,
		MaxPositives:         10,
		MaxNegatives:         100,
		EnsembleNegPosterior: 0.1,
		NNNegPosterior:       0.5,
	}
}

// LoadParams reads the parameters from a JSON file. Fields omitted from the
// file keep their default values.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return p, fmt.Errorf("params file must have .json extension, got %q", ext)
	}
	fi, err := os.Stat(cleanPath)
	if err != nil {
		return p, fmt.Errorf("failed to stat params file: %w", err)
	}
	if fi.Size() > maxParamsFileSize {
		return p, fmt.Errorf("params file too large: %d bytes (max %d)", fi.Size(), maxParamsFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return p, fmt.Errorf("failed to read params file: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse params JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid params: %w", err)
	}
	return p, nil
}

// Validate checks that the parameters are within their valid ranges.
func (p Params) Validate() error {
	switch {
	case p.MinScale > p.MaxScale:
		return fmt.Errorf("min_scale (%d) must not exceed max_scale (%d)", p.MinScale, p.MaxScale)
	case p.Shift <= 0 || p.Shift > 1:
		return fmt.Errorf("shift must be in (0, 1], got %f", p.Shift)
	case p.MinSize < 1:
		return fmt.Errorf("min_size must be positive, got %d", p.MinSize)
	case p.NumTrees < 1:
		return fmt.Errorf("num_trees must be positive, got %d", p.NumTrees)
	case p.NumFeatures < 1 || p.NumFeatures > maxFeatures:
		return fmt.Errorf("num_features must be between 1 and %d, got %d", maxFeatures, p.NumFeatures)
	case p.EnsembleBlur < 0:
		return fmt.Errorf("ensemble_blur must be non-negative, got %f", p.EnsembleBlur)
	case p.ClusterCutoff <= 0 || p.ClusterCutoff > 1:
		return fmt.Errorf("cluster_cutoff must be in (0, 1], got %f", p.ClusterCutoff)
	case p.Workers < 0:
		return fmt.Errorf("workers must be non-negative, got %d", p.Workers)
	case p.MaxPositives < 0 || p.MaxNegatives < 0:
		return fmt.Errorf("max_positives and max_negatives must be non-negative")
	}

	for name, v := range map[string]float64{
		"theta_tp":               p.ThetaTP,
		"theta_fp":               p.ThetaFP,
		"positive_overlap":       p.PositiveOverlap,
		"negative_overlap":       p.NegativeOverlap,
		"ensemble_neg_posterior": p.EnsembleNegPosterior,
		"nn_neg_posterior":       p.NNNegPosterior,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, v)
		}
	}
	return nil
}
