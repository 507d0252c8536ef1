package cli_test

import (
	"bytes"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/rodial/cachemig/cmd/cli"
	"github.com/rodial/cachemig/internal/legacycache"
)

const (
	embeddedConfigurationTypeConstant = "yaml"
	commonLogLevelKeyConstant         = "common.log_level"
	commonLogFormatKeyConstant        = "common.log_format"
	legacyCacheSectionKeyConstant     = "tools.legacy_cache"
	embeddedDefaultLogLevelConstant   = "info"
	embeddedDefaultLogFormatConstant  = "structured"
	embeddedDefaultDataRootConstant   = "data"
	mapstructureTagNameConstant       = "mapstructure"
)

func decodeConfigurationSection(testInstance *testing.T, sectionValues any, target any) {
	testInstance.Helper()

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: mapstructureTagNameConstant, Result: target})
	require.NoError(testInstance, decoderError)
	require.NoError(testInstance, decoder.Decode(sectionValues))
}

func TestEmbeddedDefaultConfigurationProvidesBaselineValues(testInstance *testing.T) {
	testInstance.Parallel()

	viperInstance := viper.New()
	viperInstance.SetConfigType(embeddedConfigurationTypeConstant)
	require.NoError(testInstance, viperInstance.ReadConfig(bytes.NewReader(cli.EmbeddedDefaultConfiguration())))

	require.Equal(testInstance, embeddedDefaultLogLevelConstant, viperInstance.GetString(commonLogLevelKeyConstant))
	require.Equal(testInstance, embeddedDefaultLogFormatConstant, viperInstance.GetString(commonLogFormatKeyConstant))

	var legacyCacheConfiguration legacycache.CommandConfiguration
	decodeConfigurationSection(testInstance, viperInstance.Get(legacyCacheSectionKeyConstant), &legacyCacheConfiguration)

	require.Equal(testInstance, embeddedDefaultDataRootConstant, legacyCacheConfiguration.DataRootPath)
	require.False(testInstance, legacyCacheConfiguration.EnableDebugLogging)
}

func TestEmbeddedDefaultConfigurationMatchesCommandDefaults(testInstance *testing.T) {
	testInstance.Parallel()

	viperInstance := viper.New()
	viperInstance.SetConfigType(embeddedConfigurationTypeConstant)
	require.NoError(testInstance, viperInstance.ReadConfig(bytes.NewReader(cli.EmbeddedDefaultConfiguration())))

	var embeddedConfiguration legacycache.CommandConfiguration
	decodeConfigurationSection(testInstance, viperInstance.Get(legacyCacheSectionKeyConstant), &embeddedConfiguration)

	require.Equal(testInstance, legacycache.DefaultCommandConfiguration(), embeddedConfiguration)
}
