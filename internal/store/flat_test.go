package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: MetricCosine},
		{in: "cosine", want: MetricCosine},
		{in: "Cosine", want: MetricCosine},
		{in: "cos", want: MetricCosine},
		{in: "l2", want: MetricL2},
		{in: " L2 ", want: MetricL2},
		{in: "dot", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFlatIndexL2Search(t *testing.T) {
	x, err := NewFlatIndex(FlatIndexConfig{Dimensions: 2, Metric: MetricL2})
	require.NoError(t, err)
	require.NoError(t, x.Add([][]float32{
		{0, 0},
		{3, 4},
		{1, 0},
	}))

	results, err := x.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Exact match first: distance 0, score 1.
	assert.Equal(t, 0, results[0].Position)
	assert.Zero(t, results[0].Distance)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)

	// Then the unit vector at distance 1, score 1/(1+1).
	assert.Equal(t, 2, results[1].Position)
	assert.InDelta(t, 1.0, float64(results[1].Distance), 1e-6)
	assert.InDelta(t, 0.5, float64(results[1].Score), 1e-6)
}

func TestNewFlatIndexRejectsUnknownMetric(t *testing.T) {
	_, err := NewFlatIndex(FlatIndexConfig{Dimensions: 2, Metric: "dot"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metric")
}
