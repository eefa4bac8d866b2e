package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaultsWithNoFileOrFlags(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.RouteTopK)
	assert.Equal(t, 100, cfg.RetrievalTopK)
	assert.Equal(t, 10, cfg.RankingTopK)
	assert.True(t, cfg.EnableHyde)
	assert.Equal(t, 0.40, cfg.WRelevance)
	assert.Equal(t, 180.0, cfg.HalfLifeDays)
}

func TestValidate_RejectsZeroRoutesEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.EnableBM25 = false
	cfg.EnableVector = false
	cfg.EnableReverse = false
	cfg.EnableHyde = false
	cfg.EnableSummary = false
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveTopK(t *testing.T) {
	cfg := Defaults()
	cfg.RetrievalTopK = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestRetrievalConfig_DisablesHydeByDefaultWhenStreaming(t *testing.T) {
	cfg := Defaults()
	rc := cfg.RetrievalConfig(true, nil)
	assert.False(t, rc.EnableHyde)

	rc = cfg.RetrievalConfig(false, nil)
	assert.True(t, rc.EnableHyde)
}

func TestRetrievalConfig_ExplicitOverrideWinsEvenWhileStreaming(t *testing.T) {
	cfg := Defaults()
	on := true
	rc := cfg.RetrievalConfig(true, &on)
	assert.True(t, rc.EnableHyde)

	off := false
	rc = cfg.RetrievalConfig(false, &off)
	assert.False(t, rc.EnableHyde)
}

func TestWeights_ProjectsPerKeyOverrides(t *testing.T) {
	cfg := Defaults()
	cfg.WRelevance = 0.5
	w := cfg.Weights()
	assert.Equal(t, 0.5, w.Relevance)
	assert.Equal(t, cfg.WRecency, w.Recency)
}
