package redetect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Defaults(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	assert.Equal(t, 10, p.NumTrees)
	assert.Equal(t, 13, p.NumFeatures)
	assert.Equal(t, 0.65, p.ThetaTP)
	assert.Equal(t, 0.5, p.ThetaFP)
	assert.Equal(t, 0.1, p.Shift)
	assert.Equal(t, 25, p.MinSize)
	assert.Equal(t, 0.5, p.ClusterCutoff)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"scale range", func(p *Params) { p.MinScale, p.MaxScale = 2, 1 }},
		{"zero shift", func(p *Params) { p.Shift = 0 }},
		{"min size", func(p *Params) { p.MinSize = 0 }},
		{"trees", func(p *Params) { p.NumTrees = 0 }},
		{"features", func(p *Params) { p.NumFeatures = maxFeatures + 1 }},
		{"blur", func(p *Params) { p.EnsembleBlur = -1 }},
		{"cutoff", func(p *Params) { p.ClusterCutoff = 0 }},
		{"workers", func(p *Params) { p.Workers = -2 }},
		{"theta", func(p *Params) { p.ThetaTP = 1.5 }},
		{"overlap", func(p *Params) { p.NegativeOverlap = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadParams(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"num_trees": 6, "theta_tp": 0.7, "min_size": 12}`), 0o644))

	p, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 6, p.NumTrees)
	assert.Equal(t, 0.7, p.ThetaTP)
	assert.Equal(t, 12, p.MinSize)
	// Omitted fields keep their defaults.
	assert.Equal(t, 13, p.NumFeatures)
	assert.True(t, p.UseEnsemble)

	_, err = LoadParams(filepath.Join(dir, "params.yaml"))
	assert.ErrorContains(t, err, ".json")

	_, err = LoadParams(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"num_trees": 0}`), 0o644))
	_, err = LoadParams(bad)
	assert.ErrorContains(t, err, "num_trees")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0o644))
	_, err = LoadParams(broken)
	assert.Error(t, err)
}

func TestParams_FeatureDepthLimit(t *testing.T) {
	p := DefaultParams()
	p.NumFeatures = maxFeatures
	assert.NoError(t, p.Validate())

	p.NumFeatures = 24
	assert.ErrorContains(t, p.Validate(), "num_features")
}
