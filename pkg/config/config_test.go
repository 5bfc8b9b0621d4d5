package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompressionSettingsAppliesDefaults(t *testing.T) {
	settings, err := ParseCompressionSettings([]byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, DefaultCompressionSettings(), settings)
}

func TestParseCompressionSettingsHonorsOverrides(t *testing.T) {
	doc := []byte("idealNumSamples: 32\nmaxNumSamples: 64\nenableErrorCorrection: true\n")
	settings, err := ParseCompressionSettings(doc)
	require.NoError(t, err)
	require.EqualValues(t, 32, settings.IdealNumSamples)
	require.EqualValues(t, 64, settings.MaxNumSamples)
	require.True(t, settings.EnableErrorCorrection)
}

func TestParseCompressionSettingsRejectsInvertedBounds(t *testing.T) {
	doc := []byte("idealNumSamples: 64\nmaxNumSamples: 32\n")
	_, err := ParseCompressionSettings(doc)
	require.Error(t, err)
}

func TestParseCompressionSettingsRejectsBadYAML(t *testing.T) {
	_, err := ParseCompressionSettings([]byte("not: [valid"))
	require.Error(t, err)
}
